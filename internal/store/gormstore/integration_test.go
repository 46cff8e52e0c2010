package gormstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"whiteboard-backend/internal/store"
	"whiteboard-backend/internal/store/gormstore"
	"whiteboard-backend/internal/store/storetest"
)

// WHITEBOARD_TEST_POSTGRES_DSN 가 없으면 건너뜀. 테이블을 비우므로 전용 DB 를 쓸 것
const postgresDSNEnv = "WHITEBOARD_TEST_POSTGRES_DSN"

func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gormstore.Models()...))

	s := gormstore.New(db)
	require.NoError(t, s.EnsureIndexes(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	storetest.Run(t, func(t *testing.T) store.Store {
		require.NoError(t, db.Exec("TRUNCATE room_members, rooms, users").Error)
		return s
	})
}
