package server

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/janitor"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/metrics"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/relay"
	"whiteboard-backend/internal/service"
	"whiteboard-backend/internal/session"
	"whiteboard-backend/internal/store"
)

// Deps external connections opened by main.
type Deps struct {
	Store store.Store
	// Redis is nil when REDIS_ADDR is empty.
	Redis    *cache.RedisClient
	ServerID string
}

type Server struct {
	app        *fiber.App
	cfg        *config.Config
	store      store.Store
	redis      *cache.RedisClient
	jwtManager *auth.JWTManager
	registry   *prometheus.Registry
	persister  *relay.Persister
	janitor    *janitor.Janitor
	log        *logrus.Entry

	authHandler   *handler.AuthHandler
	roomHandler   *handler.RoomHandler
	healthHandler *handler.HealthHandler
	wsHandler     *handler.WSHandler
}

func New(cfg *config.Config, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Whiteboard Realtime Backend",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             int(cfg.WebSocket.MaxMessageBytes) + 1024*1024,
		DisableStartupMessage: true,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Redis 없이도 동작: cache/presence 는 선택
	var (
		snapshotCache relay.SnapshotCache
		livePresence  relay.Presence
		cluster       service.ClusterCounter
		forget        []janitor.Forgetter
		redisPing     handler.Pinger
	)
	if deps.Redis != nil {
		pm := presence.NewManager(deps.Redis.Client(), deps.ServerID)
		snapshotCache = deps.Redis
		livePresence = pm
		cluster = pm
		forget = append(forget, deps.Redis, pm)
		redisPing = deps.Redis.Health
	}

	registry := session.NewLocalRegistry()
	persister := relay.NewPersister(deps.Store, snapshotCache, collector,
		cfg.Relay.PersistWorkers, cfg.Relay.PersistQueueSize, cfg.Relay.PersistTimeout)
	rl := relay.New(relay.Deps{
		Registry:  registry,
		Store:     deps.Store,
		Persister: persister,
		Cache:     snapshotCache,
		Presence:  livePresence,
		Metrics:   collector,
	}, relay.Options{LookupTimeout: cfg.Relay.StoreLookupTimeout})

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	authService := service.NewAuthService(deps.Store, jwtManager)
	roomService := service.NewRoomService(deps.Store, registry, cluster, collector)

	var jan *janitor.Janitor
	if cfg.Rooms.Retention > 0 {
		jan = janitor.New(deps.Store, registry, cfg.Rooms.Retention, forget...)
	}

	return &Server{
		app:           app,
		cfg:           cfg,
		store:         deps.Store,
		redis:         deps.Redis,
		jwtManager:    jwtManager,
		registry:      reg,
		persister:     persister,
		janitor:       jan,
		log:           logger.For("server"),
		authHandler:   handler.NewAuthHandler(authService),
		roomHandler:   handler.NewRoomHandler(roomService),
		healthHandler: handler.NewHealthHandler(deps.Store.Ping, redisPing),
		wsHandler:     handler.NewWSHandler(rl, cfg.WebSocket, collector),
	}
}

// App exposes the fiber app (tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// JWT exposes the token manager (tests, tooling).
func (s *Server) JWT() *auth.JWTManager {
	return s.jwtManager
}

func (s *Server) SetupMiddleware() {
	// Panic 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 요청 로깅
	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     logrus.StandardLogger().Writer(),
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
}

func (s *Server) SetupRoutes() {
	// 헬스체크
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(s.registry)))

	// Rate Limiter for Auth routes
	authLimiter := limiter.New(limiter.Config{
		Max:        s.cfg.Auth.RateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	requireAuth := auth.AuthMiddleware(s.jwtManager)

	s.app.Post("/register", authLimiter, s.authHandler.Register)
	s.app.Post("/login", authLimiter, s.authHandler.Login)
	s.app.Get("/profile", requireAuth, s.authHandler.Profile)

	s.app.Post("/create-room", requireAuth, s.roomHandler.CreateRoom)
	s.app.Post("/verify-room", requireAuth, s.roomHandler.VerifyRoom)
	s.app.Get("/debug/rooms", requireAuth, s.roomHandler.DebugRooms)

	// WebSocket 엔드포인트 (token 쿼리 또는 Authorization 헤더)
	s.app.Get("/ws", requireAuth, s.wsHandler.Upgrade, s.wsHandler.Endpoint())
}

// Listener serves on an existing listener (tests bind 127.0.0.1:0).
func (s *Server) Listener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.janitor != nil {
		go s.janitor.Start(ctx, s.cfg.Rooms.JanitorInterval)
		s.log.Infof("🧹 Room retention enabled: %s (every %s)", s.cfg.Rooms.Retention, s.cfg.Rooms.JanitorInterval)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	s.log.Infof("🚀 Whiteboard backend starting on %s", s.cfg.Server.Port)
	s.log.Infof("📡 WebSocket endpoint: ws://localhost%s/ws", s.cfg.Server.Port)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- s.app.Listen(s.cfg.Server.Port)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-quit:
	}

	s.log.Info("🛑 Shutting down server...")
	cancel()
	return s.Shutdown()
}

// Shutdown stops accepting requests, then drains queued snapshot writes.
func (s *Server) Shutdown() error {
	err := s.app.ShutdownWithTimeout(s.cfg.Server.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if perr := s.persister.Close(ctx); perr != nil {
		s.log.WithError(perr).Warn("snapshot writes still queued at shutdown")
	}
	return err
}
