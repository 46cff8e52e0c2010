package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store/memstore"
)

func newAuthService() (*AuthService, *memstore.Store, *auth.JWTManager) {
	st := memstore.New()
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(st, jwt), st, jwt
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	cases := []RegisterInput{
		{},
		{Username: "ab", Email: "a@example.com", Password: "secret1"},
		{Username: "alice", Email: "not-an-email", Password: "secret1"},
		{Username: "alice", Email: "Alice <a@example.com>", Password: "secret1"},
		{Username: "alice", Email: "a@example.com", Password: "123"},
	}
	for _, in := range cases {
		_, err := svc.Register(ctx, in)
		assert.ErrorIs(t, err, errs.ErrValidation, "%+v", in)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, jwt := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, errs.ErrDuplicateUsername)

	token, logged, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	require.NotNil(t, logged.LastLogin)

	claims, err := jwt.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, LoginInput{Password: "secret1"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	profile, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, st, _ := newAuthService()
	ctx := context.Background()

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, st.CreateUser(ctx, &model.User{Username: "bob", Email: "bob@example.com", Password: hash}))

	_, _, err = svc.Login(ctx, LoginInput{Username: "bob", Password: "secret1"})
	assert.ErrorIs(t, err, errs.ErrInactiveUser)
	assert.ErrorIs(t, err, errs.ErrAuth)
}
