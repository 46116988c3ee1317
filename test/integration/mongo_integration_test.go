package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"whiteboard-relay/internal/repository/implementation"
	"whiteboard-relay/pkg/database"

	"github.com/stretchr/testify/require"
)

func TestMongoNoteRepository(t *testing.T) {
	uri := connectionString(t, database.DriverMongo)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := database.NewMongoClient(ctx, uri)
	require.NoError(t, err, "Failed to connect to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "whiteboard_test"
	}
	repo := implementation.NewMongoNoteRepository(client, dbName)
	defer repo.Close(context.Background())
	require.NoError(t, repo.EnsureIndexes(ctx))

	exerciseRepository(t, repo)
}
