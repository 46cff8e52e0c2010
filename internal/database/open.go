package database

import (
	"context"
	"fmt"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/store"
	"whiteboard-backend/internal/store/gormstore"
	"whiteboard-backend/internal/store/memstore"
	"whiteboard-backend/internal/store/mongostore"
)

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	log := logger.For("database")
	switch cfg.Driver {
	case "postgres":
		db, err := ConnectPostgres(cfg.Postgres, DefaultPool, gormstore.Models()...)
		if err != nil {
			return nil, err
		}
		s := gormstore.New(db)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(context.Background())
			return nil, err
		}
		log.Infof("connected to postgres %s:%s/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
		return s, nil

	case "mongo":
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s := mongostore.New(client, cfg.MongoDatabase)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(context.Background())
			return nil, err
		}
		log.Infof("connected to mongo database %s", cfg.MongoDatabase)
		return s, nil

	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
