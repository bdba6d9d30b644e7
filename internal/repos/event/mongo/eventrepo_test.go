package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/derWhity/eventlink/internal/repos"
	"github.com/derWhity/eventlink/internal/repos/repotest"
)

// These tests need a running MongoDB - set EVENTLINK_TEST_MONGO_URI to run them
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("EVENTLINK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("EVENTLINK_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database("eventlink_test_" + uuid.New().String()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})
	return db
}

func TestEventRepo(t *testing.T) {
	logger := logrus.NewEntry(logrus.New())
	repotest.RunEventRepoTests(t, func(t *testing.T) repos.EventRepo {
		repo, err := New(context.Background(), testDatabase(t), 5*time.Second, logger)
		require.NoError(t, err)
		return repo
	}, "not-an-object-id")
}
