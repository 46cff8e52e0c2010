// Package store declares the persistence contracts consumed by the room
// services and the realtime relay. Backends live in sub-packages.
package store

import (
	"context"
	"time"

	"whiteboard-backend/internal/model"
)

// RoomStore typed operations over room records. Codes are normalized
// (trimmed, upper-cased) by every implementation before matching.
type RoomStore interface {
	// FindByCode returns errs.ErrRoomNotFound when no room matches.
	FindByCode(ctx context.Context, code string) (*model.Room, error)
	// CreateRoom inserts with members = [creatorID]; errs.ErrDuplicateCode on unique violation.
	CreateRoom(ctx context.Context, code, name, creatorID string) (*model.Room, error)
	// AddMember appends userID if absent and returns the updated room.
	AddMember(ctx context.Context, code, userID string) (*model.Room, error)
	// UpdateSnapshot sets canvasData without ever creating a room. matched is
	// false when no room has the code; that is not an error.
	UpdateSnapshot(ctx context.Context, code, imageData string) (matched bool, err error)
	ClearSnapshot(ctx context.Context, code string) (matched bool, err error)
	ListAll(ctx context.Context) ([]model.Room, error)
	DeleteRoom(ctx context.Context, code string) error
}

// UserStore user records for the auth gateway.
type UserStore interface {
	// CreateUser fills in ID and CreatedAt when empty.
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// Store a full backend.
type Store interface {
	RoomStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
