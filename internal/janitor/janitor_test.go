package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/session"
	"whiteboard-backend/internal/store/memstore"
)

type stubConn struct{}

func (stubConn) ID() string       { return "c1" }
func (stubConn) Send([]byte) bool { return true }

type recordingForgetter struct{ codes []string }

func (f *recordingForgetter) Forget(_ context.Context, code string) error {
	f.codes = append(f.codes, code)
	return nil
}

func TestRun_DeletesOnlyIdleRoomsWithoutConnections(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	st.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	_, _ = st.CreateRoom(ctx, "OLD001", "idle", "u1")
	_, _ = st.CreateRoom(ctx, "OLD002", "idle but occupied", "u1")
	st.SetClock(func() time.Time { return now.Add(-time.Hour) })
	_, _ = st.CreateRoom(ctx, "NEW001", "fresh", "u1")

	reg := session.NewLocalRegistry()
	reg.Join("OLD002", stubConn{})

	f := &recordingForgetter{}
	j := New(st, reg, 24*time.Hour, f)
	j.now = func() time.Time { return now }

	deleted, err := j.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"OLD001"}, deleted)
	assert.Equal(t, []string{"OLD001"}, f.codes)

	rooms, _ := st.ListAll(ctx)
	assert.Len(t, rooms, 2)

	deleted, err = j.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	j := New(memstore.New(), nil, time.Hour)

	done := make(chan struct{})
	go func() {
		j.Start(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
