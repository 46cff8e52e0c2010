package roomcode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
)

func TestGenerate_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.True(t, Valid(code), "generated %q", code)
	}
}

func TestGenerate_Spread(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 2000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		for j := 0; j < len(code); j++ {
			seen[code[j]] = true
		}
	}
	assert.Len(t, seen, len(Alphabet))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC123", Normalize("  abc123 "))
	assert.Equal(t, "", Normalize("   "))
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"ABC123":  true,
		"000000":  true,
		"abc123":  false,
		"ABC12":   false,
		"ABC1234": false,
		"ABC-12":  false,
		"":        false,
	}
	for code, want := range cases {
		assert.Equal(t, want, Valid(code), code)
	}
}

type fakeFinder struct {
	taken map[string]bool
	err   error
	calls int
}

func (f *fakeFinder) FindByCode(_ context.Context, code string) (*model.Room, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.taken[code] {
		return &model.Room{Code: code}, nil
	}
	return nil, errs.ErrRoomNotFound
}

func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func TestAllocate_SkipsTakenCodes(t *testing.T) {
	f := &fakeFinder{taken: map[string]bool{"AAAAAA": true}}
	a := NewAllocator(f)
	a.generate = sequence("AAAAAA", "BBBBBB")

	code, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", code)
	assert.Equal(t, 2, f.calls)
}

func TestAllocate_Exhausted(t *testing.T) {
	f := &fakeFinder{taken: map[string]bool{"AAAAAA": true}}
	a := NewAllocator(f)
	a.generate = sequence("AAAAAA")

	_, err := a.Allocate(context.Background())
	require.ErrorIs(t, err, errs.ErrExhausted)
	assert.Equal(t, MaxAttempts, f.calls)
}

func TestAllocate_StoreFailure(t *testing.T) {
	boom := errs.Store("FindByCode", errors.New("connection refused"))
	f := &fakeFinder{err: boom}
	a := NewAllocator(f)

	_, err := a.Allocate(context.Background())
	require.ErrorIs(t, err, errs.ErrStore)
	assert.Equal(t, 1, f.calls)
}
