// Package storetest is the behaviour every store.Store backend must share.
// Backend packages call Run from their own tests; database-backed ones skip
// unless a connection string is configured.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

// Open returns an empty store for one subtest.
type Open func(t *testing.T) store.Store

// Run executes the shared store behaviour against open.
func Run(t *testing.T, open Open) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndFindNormalizeCode", createAndFind},
		{"FindByCodeNotFound", findNotFound},
		{"DuplicateCode", duplicateCode},
		{"ConcurrentCreateHasOneWinner", concurrentCreate},
		{"AddMemberIdempotent", addMemberIdempotent},
		{"SnapshotNeverUpserts", snapshotNoUpsert},
		{"WritesBumpUpdatedAt", updatedAtBumps},
		{"ListAndDelete", listAndDelete},
		{"UsersCaseInsensitive", users},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func createAndFind(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.CreateRoom(ctx, "abc123", "Team Sync", "u1")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", created.Code)
	assert.Equal(t, []string{"u1"}, created.Members)

	got, err := s.FindByCode(ctx, " abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", got.Code)
	assert.Equal(t, "Team Sync", got.RoomName)
	assert.Equal(t, "u1", got.Creator)
	assert.Equal(t, []string{"u1"}, got.Members)
	assert.Empty(t, got.CanvasData)
}

func findNotFound(t *testing.T, s store.Store) {
	_, err := s.FindByCode(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func duplicateCode(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateRoom(ctx, "DUP001", "a", "u1")
	require.NoError(t, err)

	_, err = s.CreateRoom(ctx, "dup001", "b", "u2")
	assert.ErrorIs(t, err, errs.ErrDuplicateCode)
	assert.ErrorIs(t, err, errs.ErrConflict)

	got, err := s.FindByCode(ctx, "DUP001")
	require.NoError(t, err)
	assert.Equal(t, "a", got.RoomName)
}

func concurrentCreate(t *testing.T, s store.Store) {
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CreateRoom(ctx, "RACE01", "r", "u"); err == nil {
				atomic.AddInt32(&wins, 1)
			} else {
				assert.ErrorIs(t, err, errs.ErrDuplicateCode)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func addMemberIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateRoom(ctx, "ABC123", "Team Sync", "u1")
	require.NoError(t, err)

	r, err := s.AddMember(ctx, "abc123", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, r.Members)

	r, err = s.AddMember(ctx, "ABC123", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, r.Members)

	r, err = s.AddMember(ctx, "ABC123", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, r.Members)

	_, err = s.AddMember(ctx, "NOPE00", "u2")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)
}

func snapshotNoUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()

	matched, err := s.UpdateSnapshot(ctx, "GHOST1", "X")
	require.NoError(t, err)
	assert.False(t, matched)
	matched, err = s.ClearSnapshot(ctx, "GHOST1")
	require.NoError(t, err)
	assert.False(t, matched)
	_, err = s.FindByCode(ctx, "GHOST1")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)

	_, err = s.CreateRoom(ctx, "ABC123", "r", "u1")
	require.NoError(t, err)
	matched, err = s.UpdateSnapshot(ctx, "abc123", "X")
	require.NoError(t, err)
	assert.True(t, matched)
	r, err := s.FindByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "X", r.CanvasData)

	// 같은 값으로 다시 써도 matched
	matched, err = s.UpdateSnapshot(ctx, "ABC123", "X")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = s.ClearSnapshot(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, matched)
	r, err = s.FindByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Empty(t, r.CanvasData)
}

func updatedAtBumps(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.CreateRoom(ctx, "ABC123", "r", "u1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	joined, err := s.AddMember(ctx, "ABC123", "u2")
	require.NoError(t, err)
	assert.True(t, joined.UpdatedAt.After(created.UpdatedAt), "AddMember must bump updatedAt")

	time.Sleep(10 * time.Millisecond)
	_, err = s.UpdateSnapshot(ctx, "ABC123", "X")
	require.NoError(t, err)
	r, err := s.FindByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.True(t, r.UpdatedAt.After(joined.UpdatedAt), "UpdateSnapshot must bump updatedAt")
	assert.WithinDuration(t, created.CreatedAt, r.CreatedAt, time.Millisecond)
}

func listAndDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.CreateRoom(ctx, "AAAAAA", "a", "u1")
	require.NoError(t, err)
	_, err = s.AddMember(ctx, "AAAAAA", "u2")
	require.NoError(t, err)
	_, err = s.CreateRoom(ctx, "BBBBBB", "b", "u1")
	require.NoError(t, err)

	rooms, err := s.ListAll(ctx)
	require.NoError(t, err)
	codes := make([]string, 0, len(rooms))
	for _, r := range rooms {
		codes = append(codes, r.Code)
	}
	assert.ElementsMatch(t, []string{"AAAAAA", "BBBBBB"}, codes)

	require.NoError(t, s.DeleteRoom(ctx, "aaaaaa"))
	_, err = s.FindByCode(ctx, "AAAAAA")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)
	require.NoError(t, s.DeleteRoom(ctx, "AAAAAA"))

	// 삭제된 코드는 재사용 가능하고 이전 멤버가 남지 않음
	again, err := s.CreateRoom(ctx, "AAAAAA", "a2", "u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, again.Members)
	got, err := s.FindByCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, got.Members)
}

func users(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := &model.User{Username: "Alice", Email: "alice@example.com", Password: "hash", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	err := s.CreateUser(ctx, &model.User{Username: "alice", Email: "other@example.com", Password: "hash", IsActive: true})
	assert.ErrorIs(t, err, errs.ErrDuplicateUsername)
	assert.ErrorIs(t, err, errs.ErrConflict)
	err = s.CreateUser(ctx, &model.User{Username: "bob", Email: "Alice@Example.com", Password: "hash", IsActive: true})
	assert.ErrorIs(t, err, errs.ErrDuplicateEmail)

	byName, err := s.FindUserByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "Alice", byName.Username)
	assert.Equal(t, "hash", byName.Password)

	byEmail, err := s.FindUserByEmail(ctx, "Alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.TouchLastLogin(ctx, u.ID, at))
	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLogin)
	assert.True(t, at.Equal(*byID.LastLogin))

	_, err = s.FindUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	_, err = s.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	assert.ErrorIs(t, s.TouchLastLogin(ctx, uuid.NewString(), at), errs.ErrUserNotFound)
}
