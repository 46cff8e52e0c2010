// Package roomcode generates and validates the 6-character codes that
// identify whiteboard rooms.
package roomcode

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6

	// MaxAttempts bounds the uniqueness retry loop.
	MaxAttempts = 10
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a random code drawn uniformly from Alphabet.
func Generate() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}

// Normalize trims surrounding whitespace and upper-cases a user-supplied code.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Valid reports whether code is already in canonical form.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// Finder is the slice of the room store the allocator needs.
type Finder interface {
	FindByCode(ctx context.Context, code string) (*model.Room, error)
}

// Allocator hands out codes not currently used by any room.
type Allocator struct {
	rooms    Finder
	generate func() (string, error)
}

func NewAllocator(rooms Finder) *Allocator {
	return &Allocator{rooms: rooms, generate: Generate}
}

// Allocate returns an unused code or errs.ErrExhausted after MaxAttempts
// consecutive collisions. Store failures abort immediately.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		code, err := a.generate()
		if err != nil {
			return "", err
		}
		_, err = a.rooms.FindByCode(ctx, code)
		if errors.Is(err, errs.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", &errs.Error{Kind: errs.ErrExhausted, Op: "roomcode.Allocate"}
}
