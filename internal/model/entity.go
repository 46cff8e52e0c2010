package model

import (
	"time"
)

// User 사용자. Owned by the auth gateway; the realtime core only needs ID.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"-"` // bcrypt hash
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Room 화이트보드 방
type Room struct {
	Code       string    `json:"code"`
	RoomName   string    `json:"roomName"`
	Creator    string    `json:"creator"`
	Members    []string  `json:"members"`
	CanvasData string    `json:"canvasData,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasMember reports whether userID is already in the member set.
func (r *Room) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Summary strips the snapshot payload for diagnostics listings.
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		Code:        r.Code,
		RoomName:    r.RoomName,
		Creator:     r.Creator,
		MemberCount: len(r.Members),
		HasCanvas:   r.CanvasData != "",
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RoomSummary 진단용 방 요약
type RoomSummary struct {
	Code               string    `json:"code"`
	RoomName           string    `json:"roomName"`
	Creator            string    `json:"creator"`
	MemberCount        int       `json:"memberCount"`
	HasCanvas          bool      `json:"hasCanvas"`
	LiveConnections    int       `json:"liveConnections"`
	ClusterConnections *int64    `json:"clusterConnections,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
