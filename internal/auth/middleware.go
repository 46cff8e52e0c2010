package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocalUserID fiber Locals key holding the authenticated user id.
const LocalUserID = "userID"

const (
	localUsername = "username"
	localClaims   = "claims"
)

// tokenFrom reads the bearer token from the Authorization header, falling
// back to the token query parameter browsers must use for websocket upgrades.
func tokenFrom(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", errors.New("missing authorization token")
	}

	// Bearer 토큰 파싱
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// AuthMiddleware JWT 인증 미들웨어
func AuthMiddleware(jwtManager *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := tokenFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// 토큰 검증
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		// 사용자 정보를 컨텍스트에 저장
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		c.Locals(localClaims, claims)

		return c.Next()
	}
}

// UserID 인증된 사용자 ID. Empty when the middleware did not run.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
