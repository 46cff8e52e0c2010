package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Config error: %v", err)
	}
	logger.Setup(cfg.Log)

	// 저장소 연결
	st, err := database.Open(context.Background(), cfg.Store)
	if err != nil {
		logrus.Fatalf("❌ Store connection failed: %v", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logrus.WithError(err).Warn("store close failed")
		}
	}()
	logrus.Infof("✅ Store ready (%s)", cfg.Store.Driver)

	// Redis 연결 (선택)
	var redisClient *cache.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SnapshotCacheTTL)
		if err != nil {
			logrus.WithError(err).Warn("⚠️ Redis unavailable, running without snapshot cache and presence")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 서버 생성 및 설정
	srv := server.New(cfg, server.Deps{
		Store:    st,
		Redis:    redisClient,
		ServerID: uuid.NewString(),
	})
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		logrus.Errorf("Server failed: %v", err)
	}
}
