package handler

import (
	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/service"
)

// AuthHandler 인증 핸들러
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler AuthHandler 생성
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 회원가입
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	user, err := h.svc.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "user registered successfully",
		"user":    user,
	})
}

// Login 로그인 (username 또는 email)
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	token, user, err := h.svc.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "login successful",
		"token":   token,
		"user":    user,
	})
}

// Profile 현재 사용자 정보
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, err := h.svc.Profile(c.UserContext(), auth.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
