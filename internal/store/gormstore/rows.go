package gormstore

import (
	"time"

	"whiteboard-backend/internal/model"
)

// userRow 사용자 테이블
type userRow struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	Username  string     `gorm:"type:varchar(30);uniqueIndex:idx_users_username;not null"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	Password  string     `gorm:"type:varchar(255);not null"`
	IsActive  bool       `gorm:"default:true"`
	LastLogin *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (userRow) TableName() string {
	return "users"
}

// roomRow 방 테이블. Members live in room_members so set semantics come from the composite key.
type roomRow struct {
	Code       string    `gorm:"type:varchar(6);primaryKey"`
	RoomName   string    `gorm:"type:varchar(100);not null"`
	Creator    string    `gorm:"type:varchar(64);not null"`
	CanvasData string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime;index"`

	// Relations
	Members []memberRow `gorm:"foreignKey:RoomCode;references:Code;constraint:OnDelete:CASCADE"`
}

func (roomRow) TableName() string {
	return "rooms"
}

// memberRow 방 멤버 (room_code, user_id) 복합 PK
type memberRow struct {
	RoomCode string    `gorm:"type:varchar(6);primaryKey"`
	UserID   string    `gorm:"type:varchar(64);primaryKey"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (memberRow) TableName() string {
	return "room_members"
}

// Models returns the rows AutoMigrate must create.
func Models() []any {
	return []any{&userRow{}, &roomRow{}, &memberRow{}}
}

func (r *roomRow) toModel() *model.Room {
	members := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, m.UserID)
	}
	return &model.Room{
		Code:       r.Code,
		RoomName:   r.RoomName,
		Creator:    r.Creator,
		Members:    members,
		CanvasData: r.CanvasData,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (u *userRow) toModel() *model.User {
	return &model.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func userRowFrom(u *model.User) *userRow {
	return &userRow{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
