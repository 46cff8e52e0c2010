package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger a dependency the health checks can ping
type Pinger func(ctx context.Context) error

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	store Pinger
	redis Pinger
}

// NewHealthHandler HealthHandler 생성. redis may be nil when not configured.
func NewHealthHandler(store, redis Pinger) *HealthHandler {
	return &HealthHandler{store: store, redis: redis}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

func pingCheck(ctx context.Context, p Pinger) ComponentCheck {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := p(ctx); err != nil {
		return ComponentCheck{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
}

// Check 전체 상태 확인 (store + Redis)
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck),
	}

	// 1. Store 체크
	store := pingCheck(c.UserContext(), h.store)
	if store.Status != "healthy" {
		response.Status = "unhealthy"
	}
	response.Checks["store"] = store

	// 2. Redis 체크 (캐시가 없어도 relay는 동작)
	if h.redis != nil {
		redis := pingCheck(c.UserContext(), h.redis)
		if redis.Status != "healthy" {
			redis.Status = "degraded"
		}
		response.Checks["redis"] = redis
	} else {
		response.Checks["redis"] = ComponentCheck{Status: "not_configured"}
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}
	return c.Status(statusCode).JSON(response)
}

// Liveness K8s liveness 체크용 (단순)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness 체크용 (store 연결)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.store(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
