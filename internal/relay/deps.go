package relay

import (
	"context"

	"whiteboard-backend/internal/model"
)

// SnapshotStore the slice of store.RoomStore the relay touches. The snapshot
// writes report whether a room matched.
type SnapshotStore interface {
	FindByCode(ctx context.Context, code string) (*model.Room, error)
	UpdateSnapshot(ctx context.Context, code, imageData string) (bool, error)
	ClearSnapshot(ctx context.Context, code string) (bool, error)
}

// SnapshotCache consulted on join before the store. Only the Persister writes
// it, after the store accepted the same write. Get reports a miss with ok=false.
type SnapshotCache interface {
	Get(ctx context.Context, code string) (data string, ok bool, err error)
	Set(ctx context.Context, code, data string) error
	Delete(ctx context.Context, code string) error
}

// Presence cluster-wide live connection counts.
type Presence interface {
	Joined(ctx context.Context, code, connID string) error
	Left(ctx context.Context, code, connID string) error
}

// Drop reasons.
const (
	DropSendBufferFull   = "send_buffer_full"
	DropPersistQueueFull = "persist_queue_full"
	DropNotJoined        = "not_joined"
	DropRateLimited      = "rate_limited"
	DropMalformed        = "malformed"
)

// Recorder receives relay metrics.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	Event(msgType string)
	Delivered(n int)
	Dropped(reason string)
	PersistFailure(op string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) ConnectionOpened()     {}
func (NopRecorder) ConnectionClosed()     {}
func (NopRecorder) Event(string)          {}
func (NopRecorder) Delivered(int)         {}
func (NopRecorder) Dropped(string)        {}
func (NopRecorder) PersistFailure(string) {}
