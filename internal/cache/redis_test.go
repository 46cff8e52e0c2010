package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "room:ABC123:canvas", snapshotKey("ABC123"))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	// port 1 is never a redis server
	_, err := NewRedisClient("127.0.0.1:1", "", 0, time.Minute)
	assert.Error(t, err)
}
