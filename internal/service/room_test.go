package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/roomcode"
	"whiteboard-backend/internal/session"
	"whiteboard-backend/internal/store/memstore"
)

type countMetrics struct{ created int }

func (m *countMetrics) RoomCreated() { m.created++ }

func TestRoomService_CreateAndVerifyScenario(t *testing.T) {
	ctx := context.Background()
	metrics := &countMetrics{}
	svc := NewRoomService(memstore.New(), session.NewLocalRegistry(), nil, metrics)

	room, err := svc.CreateRoom(ctx, "U1", "Team Sync")
	require.NoError(t, err)
	assert.Len(t, room.Code, 6)
	assert.True(t, roomcode.Valid(room.Code))
	assert.Equal(t, "Team Sync", room.RoomName)
	assert.Equal(t, []string{"U1"}, room.Members)
	assert.Equal(t, 1, metrics.created)

	verified, err := svc.VerifyRoom(ctx, "U2", "  "+strings.ToLower(room.Code)+" ")
	require.NoError(t, err)
	assert.Len(t, verified.Members, 2)

	again, err := svc.VerifyRoom(ctx, "U2", room.Code)
	require.NoError(t, err)
	assert.Len(t, again.Members, 2)
}

func TestRoomService_CreateValidation(t *testing.T) {
	svc := NewRoomService(memstore.New(), nil, nil, nil)
	_, err := svc.CreateRoom(context.Background(), "U1", "   ")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRoomService_VerifyErrors(t *testing.T) {
	svc := NewRoomService(memstore.New(), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.VerifyRoom(ctx, "U2", "  ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.VerifyRoom(ctx, "U2", "AB")
	assert.ErrorIs(t, err, errs.ErrInvalidRoomCode)

	_, err = svc.VerifyRoom(ctx, "U2", "ZZZZZZ")
	assert.ErrorIs(t, err, errs.ErrRoomNotFound)
}

type mockRooms struct {
	mock.Mock
}

func (m *mockRooms) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(*model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) CreateRoom(ctx context.Context, code, name, creatorID string) (*model.Room, error) {
	args := m.Called(ctx, code, name, creatorID)
	r, _ := args.Get(0).(*model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) AddMember(ctx context.Context, code, userID string) (*model.Room, error) {
	args := m.Called(ctx, code, userID)
	r, _ := args.Get(0).(*model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) UpdateSnapshot(ctx context.Context, code, imageData string) (bool, error) {
	args := m.Called(ctx, code, imageData)
	return args.Bool(0), args.Error(1)
}

func (m *mockRooms) ClearSnapshot(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockRooms) ListAll(ctx context.Context) ([]model.Room, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]model.Room)
	return r, args.Error(1)
}

func (m *mockRooms) DeleteRoom(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func TestRoomService_CollisionAtInsert(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("FindByCode", mock.Anything, mock.Anything).Return(nil, errs.ErrRoomNotFound).Once()
	rooms.On("CreateRoom", mock.Anything, mock.Anything, "Team Sync", "U1").Return(nil, errs.ErrDuplicateCode).Once()

	svc := NewRoomService(rooms, nil, nil, nil)
	_, err := svc.CreateRoom(context.Background(), "U1", "Team Sync")
	assert.ErrorIs(t, err, errs.ErrCodeCollision)
	assert.ErrorIs(t, err, errs.ErrConflict)
	rooms.AssertExpectations(t)
}

func TestRoomService_Exhausted(t *testing.T) {
	rooms := &mockRooms{}
	rooms.On("FindByCode", mock.Anything, mock.Anything).Return(&model.Room{}, nil).Times(roomcode.MaxAttempts)

	svc := NewRoomService(rooms, nil, nil, nil)
	_, err := svc.CreateRoom(context.Background(), "U1", "Team Sync")
	assert.ErrorIs(t, err, errs.ErrExhausted)
	rooms.AssertExpectations(t)
	rooms.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

type fakeCluster struct {
	counts map[string]int64
	err    error
}

func (f fakeCluster) Counts(context.Context, []string) (map[string]int64, error) {
	return f.counts, f.err
}

type stubConn struct{ id string }

func (c stubConn) ID() string       { return c.id }
func (c stubConn) Send([]byte) bool { return true }

func TestRoomService_ListRooms(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	_, _ = st.CreateRoom(ctx, "AAAAAA", "a", "U1")
	_, _ = st.CreateRoom(ctx, "BBBBBB", "b", "U1")
	_, _ = st.UpdateSnapshot(ctx, "BBBBBB", "X")

	reg := session.NewLocalRegistry()
	reg.Join("AAAAAA", stubConn{id: "c1"})
	reg.Join("AAAAAA", stubConn{id: "c2"})

	svc := NewRoomService(st, reg, fakeCluster{counts: map[string]int64{"AAAAAA": 5}}, nil)
	list, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byCode := map[string]model.RoomSummary{}
	for _, s := range list {
		byCode[s.Code] = s
	}
	assert.Equal(t, 2, byCode["AAAAAA"].LiveConnections)
	require.NotNil(t, byCode["AAAAAA"].ClusterConnections)
	assert.Equal(t, int64(5), *byCode["AAAAAA"].ClusterConnections)
	assert.Equal(t, int64(0), *byCode["BBBBBB"].ClusterConnections)
	assert.True(t, byCode["BBBBBB"].HasCanvas)

	svc = NewRoomService(st, reg, fakeCluster{err: errors.New("redis down")}, nil)
	list, err = svc.ListRooms(ctx)
	require.NoError(t, err)
	assert.Nil(t, list[0].ClusterConnections)
}
