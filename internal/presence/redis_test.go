package presence

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	m := NewManager(nil, "srv-1")
	assert.Equal(t, "presence:room:ABC123", roomKey("ABC123"))
	assert.Equal(t, "srv-1:conn-9", m.member("conn-9"))
}

func TestCounts_EmptyInputSkipsRedis(t *testing.T) {
	m := NewManager(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "srv-1")
	counts, err := m.Counts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
