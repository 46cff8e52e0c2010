package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoom_HasMember(t *testing.T) {
	r := &Room{Members: []string{"u1", "u2"}}
	assert.True(t, r.HasMember("u2"))
	assert.False(t, r.HasMember("u3"))
}

func TestRoom_Summary(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &Room{
		Code:       "ABC123",
		RoomName:   "Team Sync",
		Creator:    "u1",
		Members:    []string{"u1", "u2"},
		CanvasData: "data:image/png;base64,AAAA",
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	s := r.Summary()
	assert.Equal(t, "ABC123", s.Code)
	assert.Equal(t, 2, s.MemberCount)
	assert.True(t, s.HasCanvas)
	assert.Nil(t, s.ClusterConnections)
	assert.Equal(t, created, s.CreatedAt)
}
