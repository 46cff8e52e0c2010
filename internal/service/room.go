package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/roomcode"
	"whiteboard-backend/internal/store"
)

const maxRoomNameLen = 100

// LiveCounter process-local live connections per room
type LiveCounter interface {
	Size(code string) int
}

// ClusterCounter live connections across all instances
type ClusterCounter interface {
	Counts(ctx context.Context, codes []string) (map[string]int64, error)
}

// RoomMetrics room lifecycle counters
type RoomMetrics interface {
	RoomCreated()
}

// RoomService 방 생성/참가/조회
type RoomService struct {
	rooms     store.RoomStore
	allocator *roomcode.Allocator
	live      LiveCounter
	cluster   ClusterCounter
	metrics   RoomMetrics
	log       *logrus.Entry
}

// NewRoomService cluster and metrics may be nil.
func NewRoomService(rooms store.RoomStore, live LiveCounter, cluster ClusterCounter, metrics RoomMetrics) *RoomService {
	return &RoomService{
		rooms:     rooms,
		allocator: roomcode.NewAllocator(rooms),
		live:      live,
		cluster:   cluster,
		metrics:   metrics,
		log:       logger.For("rooms"),
	}
}

// CreateRoom allocates a code and inserts the room with the creator as sole member.
func (s *RoomService) CreateRoom(ctx context.Context, userID, name string) (*model.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("roomName is required")
	}
	if len(name) > maxRoomNameLen {
		return nil, errs.Validation("roomName must be at most 100 characters")
	}

	code, err := s.allocator.Allocate(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrExhausted) {
			s.log.WithError(err).Error("room code space exhausted")
		}
		return nil, err
	}

	room, err := s.rooms.CreateRoom(ctx, code, name, userID)
	if errors.Is(err, errs.ErrDuplicateCode) {
		// 사전 확인 이후 다른 요청이 같은 코드를 선점
		s.log.WithField("room_code", code).Warn("room code taken between check and insert")
		return nil, errs.ErrCodeCollision
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RoomCreated()
	}
	s.log.WithFields(logrus.Fields{"room_code": room.Code, "user_id": userID}).Info("room created")
	return room, nil
}

// VerifyRoom checks a user-typed code and adds the caller to the members.
func (s *RoomService) VerifyRoom(ctx context.Context, userID, rawCode string) (*model.Room, error) {
	code := roomcode.Normalize(rawCode)
	if code == "" {
		return nil, errs.Validation("roomCode is required")
	}
	if !roomcode.Valid(code) {
		return nil, errs.ErrInvalidRoomCode
	}
	return s.rooms.AddMember(ctx, code, userID)
}

// ListRooms diagnostics listing with live connection counts.
func (s *RoomService) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.RoomSummary, 0, len(rooms))
	codes := make([]string, 0, len(rooms))
	for i := range rooms {
		sum := rooms[i].Summary()
		if s.live != nil {
			sum.LiveConnections = s.live.Size(sum.Code)
		}
		summaries = append(summaries, sum)
		codes = append(codes, sum.Code)
	}

	if s.cluster != nil && len(codes) > 0 {
		counts, err := s.cluster.Counts(ctx, codes)
		if err != nil {
			s.log.WithError(err).Warn("cluster presence unavailable")
			return summaries, nil
		}
		for i := range summaries {
			n := counts[summaries[i].Code]
			summaries[i].ClusterConnections = &n
		}
	}
	return summaries, nil
}
