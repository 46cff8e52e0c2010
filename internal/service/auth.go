package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 6
)

// AuthService 회원가입/로그인 비즈니스 로직
type AuthService struct {
	users store.UserStore
	jwt   *auth.JWTManager
	log   *logrus.Entry
}

// NewAuthService AuthService 생성
func NewAuthService(users store.UserStore, jwt *auth.JWTManager) *AuthService {
	return &AuthService{
		users: users,
		jwt:   jwt,
		log:   logger.For("auth"),
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

// Register 회원가입
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case username == "" || email == "" || in.Password == "":
		return nil, errs.Validation("username, email and password are required")
	case len(username) < minUsernameLen || len(username) > maxUsernameLen:
		return nil, errs.Validation("username must be between 3 and 30 characters")
	case !validEmail(email):
		return nil, errs.Validation("invalid email address")
	case len(in.Password) < minPasswordLen:
		return nil, errs.Validation("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: hash,
		IsActive: true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// Login 로그인. Unknown users and wrong passwords share one error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *model.User, error) {
	if in.Password == "" || (in.Username == "" && in.Email == "") {
		return "", nil, errs.Validation("username or email and password are required")
	}

	var (
		user *model.User
		err  error
	)
	if in.Username != "" {
		user, err = s.users.FindUserByUsername(ctx, strings.TrimSpace(in.Username))
	} else {
		user, err = s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	}
	if errors.Is(err, errs.ErrNotFound) {
		return "", nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if !auth.CheckPassword(user.Password, in.Password) {
		return "", nil, errs.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, errs.ErrInactiveUser
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.WithField("user_id", user.ID).WithError(err).Warn("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Profile 현재 사용자 정보
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.FindUserByID(ctx, userID)
}
