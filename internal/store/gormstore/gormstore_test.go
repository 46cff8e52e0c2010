package gormstore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
)

func TestRoomRow_ToModel(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	row := roomRow{
		Code:       "ABC123",
		RoomName:   "Team Sync",
		Creator:    "u1",
		CanvasData: "X",
		CreatedAt:  now,
		UpdatedAt:  now,
		Members:    []memberRow{{RoomCode: "ABC123", UserID: "u1"}, {RoomCode: "ABC123", UserID: "u2"}},
	}

	r := row.toModel()
	assert.Equal(t, []string{"u1", "u2"}, r.Members)
	assert.Equal(t, "X", r.CanvasData)
	assert.Equal(t, now, r.UpdatedAt)
}

func TestUserRow_RoundTrip(t *testing.T) {
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	u := &model.User{ID: "id", Username: "alice", Email: "a@example.com", Password: "h", IsActive: true, LastLogin: &at}
	assert.Equal(t, u, userRowFrom(u).toModel())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", userRow{}.TableName())
	assert.Equal(t, "rooms", roomRow{}.TableName())
	assert.Equal(t, "room_members", memberRow{}.TableName())
	assert.Len(t, Models(), 3)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestDuplicateUserError(t *testing.T) {
	assert.Nil(t, duplicateUserError(errors.New("boom")))
	assert.Equal(t, errs.ErrDuplicateEmail,
		duplicateUserError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}))
	assert.Equal(t, errs.ErrDuplicateUsername,
		duplicateUserError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username"}))
	assert.Equal(t, errs.ErrDuplicateEmail,
		duplicateUserError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email_lower"}))
	assert.Equal(t, errs.ErrDuplicateUsername,
		duplicateUserError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username_lower"}))
}
