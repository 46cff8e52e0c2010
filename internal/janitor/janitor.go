// Package janitor deletes rooms nobody has touched within the retention
// window. Rooms with live connections on this instance are always kept.
package janitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/model"
)

// Rooms the store operations a pass needs.
type Rooms interface {
	ListAll(ctx context.Context) ([]model.Room, error)
	DeleteRoom(ctx context.Context, code string) error
}

// LiveCounter reports live connections for a room.
type LiveCounter interface {
	Size(code string) int
}

// Forgetter drops per-room side data (cache, presence) after deletion.
type Forgetter interface {
	Forget(ctx context.Context, code string) error
}

type Janitor struct {
	rooms     Rooms
	live      LiveCounter
	forget    []Forgetter
	Retention time.Duration
	now       func() time.Time
	log       *logrus.Entry
}

func New(rooms Rooms, live LiveCounter, retention time.Duration, forget ...Forgetter) *Janitor {
	return &Janitor{
		rooms:     rooms,
		live:      live,
		forget:    forget,
		Retention: retention,
		now:       time.Now,
		log:       logger.For("janitor"),
	}
}

// Run executes one pass and returns the deleted codes. Idempotent.
func (j *Janitor) Run(ctx context.Context) ([]string, error) {
	start := j.now()
	cutoff := start.Add(-j.Retention)

	rooms, err := j.rooms.ListAll(ctx)
	if err != nil {
		j.log.WithError(err).Error("failed to list rooms")
		return nil, err
	}

	var deleted []string
	for i := range rooms {
		r := &rooms[i]
		if !r.UpdatedAt.Before(cutoff) {
			continue
		}
		if j.live != nil && j.live.Size(r.Code) > 0 {
			continue
		}
		if err := j.rooms.DeleteRoom(ctx, r.Code); err != nil {
			j.log.WithField("room_code", r.Code).WithError(err).Warn("failed to delete idle room")
			continue
		}
		for _, f := range j.forget {
			if err := f.Forget(ctx, r.Code); err != nil {
				j.log.WithField("room_code", r.Code).WithError(err).Debug("forget failed")
			}
		}
		deleted = append(deleted, r.Code)
	}

	j.log.WithFields(logrus.Fields{
		"deleted_count": len(deleted),
		"retention":     j.Retention.String(),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("room retention pass finished")
	return deleted, nil
}

// Start runs a pass every interval until ctx is done.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = j.Run(ctx)
		}
	}
}
