package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"whiteboard-backend/internal/errs"
	"whiteboard-backend/internal/model"
)

func TestRoomDoc_BSONFieldNames(t *testing.T) {
	doc := roomDoc{Code: "ABC123", RoomName: "Team Sync", Creator: "u1", Members: []string{"u1"}}
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"code", "roomName", "creator", "members", "canvasData", "createdAt", "updatedAt"} {
		assert.Contains(t, m, key)
	}
}

func TestRoomDoc_ToModelNilMembers(t *testing.T) {
	r := (&roomDoc{Code: "ABC123"}).toModel()
	assert.NotNil(t, r.Members)
	assert.Empty(t, r.Members)
}

func TestUserDoc_LowercasedKeys(t *testing.T) {
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	u := &model.User{ID: "id", Username: "Alice", Email: "Alice@Example.com", IsActive: true, LastLogin: &at}

	doc := userDocFrom(u)
	assert.Equal(t, "alice", doc.UsernameKey)
	assert.Equal(t, "alice@example.com", doc.EmailKey)
	assert.Equal(t, u, doc.toModel())
}

func TestDuplicateUserError(t *testing.T) {
	assert.Equal(t, errs.ErrDuplicateEmail,
		duplicateUserError(errors.New(`E11000 duplicate key error collection: whiteboard.users index: emailKey_unique`)))
	assert.Equal(t, errs.ErrDuplicateUsername,
		duplicateUserError(errors.New(`E11000 duplicate key error collection: whiteboard.users index: usernameKey_unique`)))
}
