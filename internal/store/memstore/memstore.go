// Package memstore is an in-process Store used by tests and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/roomcode"
	"whiteboard-backend/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
	users map[string]*model.User
	now   func() time.Time
}

func New() *Store {
	return &Store{
		rooms: make(map[string]*model.Room),
		users: make(map[string]*model.User),
		now:   time.Now,
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func copyRoom(r *model.Room) *model.Room {
	c := *r
	c.Members = append([]string(nil), r.Members...)
	return &c
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

func (s *Store) FindByCode(_ context.Context, code string) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomcode.Normalize(code)]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	return copyRoom(r), nil
}

func (s *Store) CreateRoom(_ context.Context, code, name, creatorID string) (*model.Room, error) {
	code = roomcode.Normalize(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[code]; exists {
		return nil, errs.ErrDuplicateCode
	}
	now := s.now().UTC()
	r := &model.Room{
		Code:      code,
		RoomName:  name,
		Creator:   creatorID,
		Members:   []string{creatorID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rooms[code] = r
	return copyRoom(r), nil
}

func (s *Store) AddMember(_ context.Context, code, userID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomcode.Normalize(code)]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	if !r.HasMember(userID) {
		r.Members = append(r.Members, userID)
	}
	r.UpdatedAt = s.now().UTC()
	return copyRoom(r), nil
}

func (s *Store) UpdateSnapshot(_ context.Context, code, imageData string) (bool, error) {
	return s.setCanvas(code, imageData), nil
}

func (s *Store) ClearSnapshot(_ context.Context, code string) (bool, error) {
	return s.setCanvas(code, ""), nil
}

func (s *Store) setCanvas(code, data string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomcode.Normalize(code)]
	if !ok {
		return false
	}
	r.CanvasData = data
	r.UpdatedAt = s.now().UTC()
	return true
}

func (s *Store) ListAll(_ context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, *copyRoom(r))
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

func (s *Store) DeleteRoom(_ context.Context, code string) error {
	s.mu.Lock()
	delete(s.rooms, roomcode.Normalize(code))
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return errs.ErrDuplicateUsername
		}
		if strings.EqualFold(u.Email, user.Email) {
			return errs.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return strings.EqualFold(u.Username, username) })
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.findUser(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) findUser(match func(*model.User) bool) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (s *Store) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return errs.ErrUserNotFound
	}
	t := at.UTC()
	u.LastLogin = &t
	return nil
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }
