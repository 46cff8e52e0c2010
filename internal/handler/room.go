package handler

import (
	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/service"
)

// RoomHandler 방 생성/참가 핸들러
type RoomHandler struct {
	svc *service.RoomService
}

// NewRoomHandler RoomHandler 생성
func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

type createRoomRequest struct {
	RoomName string `json:"roomName"`
}

type verifyRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

// CreateRoom 방 생성
func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	room, err := h.svc.CreateRoom(c.UserContext(), auth.UserID(c), req.RoomName)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "room created successfully",
		"roomCode": room.Code,
		"room":     room,
	})
}

// VerifyRoom 방 코드 확인 후 멤버 추가
func (h *RoomHandler) VerifyRoom(c *fiber.Ctx) error {
	var req verifyRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	room, err := h.svc.VerifyRoom(c.UserContext(), auth.UserID(c), req.RoomCode)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "room verified successfully",
		"room":    room,
	})
}

// DebugRooms 진단용 방 목록
func (h *RoomHandler) DebugRooms(c *fiber.Ctx) error {
	rooms, err := h.svc.ListRooms(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"rooms": rooms,
		"total": len(rooms),
	})
}
