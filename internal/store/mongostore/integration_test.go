package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whiteboard-backend/internal/store"
	"whiteboard-backend/internal/store/mongostore"
	"whiteboard-backend/internal/store/storetest"
)

// WHITEBOARD_TEST_MONGO_URI 가 없으면 건너뜀
const (
	mongoURIEnv  = "WHITEBOARD_TEST_MONGO_URI"
	testDatabase = "whiteboard_storetest"
)

func TestStore_Mongo(t *testing.T) {
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))
	t.Cleanup(func() {
		_ = client.Database(testDatabase).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		require.NoError(t, client.Database(testDatabase).Drop(ctx))
		s := mongostore.New(client, testDatabase)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s
	})
}
