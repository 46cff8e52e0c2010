// Package gormstore is the PostgreSQL Store backed by gorm.
package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/roomcode"
	"whiteboard-backend/internal/store"
)

var _ store.Store = (*Store)(nil)

const uniqueViolation = "23505"

// AutoMigrate 가 만들 수 없는 대소문자 무시 유니크 인덱스
var caseInsensitiveIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
}

type Store struct {
	db *gorm.DB
}

// New expects a db whose schema has been migrated with Models().
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EnsureIndexes runs after AutoMigrate so "Alice" and "alice" cannot both
// register, matching the LOWER() lookups below.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range caseInsensitiveIndexes {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return errs.Store("gormstore.EnsureIndexes", err)
		}
	}
	return nil
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC, user_id ASC")
}

func (s *Store) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	var row roomRow
	err := s.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		Where("code = ?", roomcode.Normalize(code)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, errs.Store("gormstore.FindByCode", err)
	}
	return row.toModel(), nil
}

func (s *Store) CreateRoom(ctx context.Context, code, name, creatorID string) (*model.Room, error) {
	code = roomcode.Normalize(code)
	row := roomRow{
		Code:     code,
		RoomName: name,
		Creator:  creatorID,
		Members:  []memberRow{{RoomCode: code, UserID: creatorID}},
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errs.ErrDuplicateCode
		}
		return nil, errs.Store("gormstore.CreateRoom", err)
	}
	return row.toModel(), nil
}

func (s *Store) AddMember(ctx context.Context, code, userID string) (*model.Room, error) {
	code = roomcode.Normalize(code)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&roomRow{}).Where("code = ?", code).Update("updated_at", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrRoomNotFound
		}
		// 이미 멤버면 무시
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&memberRow{RoomCode: code, UserID: userID}).Error
	})
	if err != nil {
		return nil, errs.Store("gormstore.AddMember", err)
	}
	return s.FindByCode(ctx, code)
}

func (s *Store) UpdateSnapshot(ctx context.Context, code, imageData string) (bool, error) {
	return s.setCanvas(ctx, "gormstore.UpdateSnapshot", code, imageData)
}

func (s *Store) ClearSnapshot(ctx context.Context, code string) (bool, error) {
	return s.setCanvas(ctx, "gormstore.ClearSnapshot", code, "")
}

// setCanvas never inserts; zero rows affected means the room is gone.
func (s *Store) setCanvas(ctx context.Context, op, code, data string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&roomRow{}).
		Where("code = ?", roomcode.Normalize(code)).
		Updates(map[string]any{"canvas_data": data, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, errs.Store(op, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListAll(ctx context.Context) ([]model.Room, error) {
	var rows []roomRow
	err := s.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errs.Store("gormstore.ListAll", err)
	}
	rooms := make([]model.Room, 0, len(rows))
	for i := range rows {
		rooms = append(rooms, *rows[i].toModel())
	}
	return rooms, nil
}

func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	code = roomcode.Normalize(code)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_code = ?", code).Delete(&memberRow{}).Error; err != nil {
			return err
		}
		return tx.Where("code = ?", code).Delete(&roomRow{}).Error
	})
	return errs.Store("gormstore.DeleteRoom", err)
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	row := userRowFrom(user)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if dup := duplicateUserError(err); dup != nil {
			return dup
		}
		return errs.Store("gormstore.CreateUser", err)
	}
	user.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errs.ErrUserNotFound
	}
	return s.findUser(ctx, "gormstore.FindUserByID", "id = ?", id)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, "gormstore.FindUserByUsername", "LOWER(username) = LOWER(?)", username)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "gormstore.FindUserByEmail", "LOWER(email) = LOWER(?)", email)
}

func (s *Store) findUser(ctx context.Context, op, query string, arg any) (*model.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, errs.Store(op, err)
	}
	return row.toModel(), nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("last_login", at.UTC())
	if res.Error != nil {
		return errs.Store("gormstore.TouchLastLogin", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errs.Store("gormstore.Ping", err)
	}
	return errs.Store("gormstore.Ping", sqlDB.PingContext(ctx))
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation 23505 - unique violation
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func duplicateUserError(err error) error {
	if !isUniqueViolation(err) {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.Contains(pgErr.ConstraintName, "email") {
		return errs.ErrDuplicateEmail
	}
	return errs.ErrDuplicateUsername
}
