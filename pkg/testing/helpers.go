package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateTestContext creates a context with a timeout for tests
func CreateTestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// SkipIfShort skips container-backed tests under `go test -short`.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// NewMongoDatabase starts a throwaway MongoDB container and returns a database
// on it. Container and client are released through t.Cleanup.
func NewMongoDatabase(t *testing.T, name string) *mongo.Database {
	t.Helper()
	SkipIfShort(t)

	ctx, cancel := CreateTestContext(2 * time.Minute)
	defer cancel()

	container, err := NewMongoDBContainer(ctx)
	require.NoError(t, err, "failed to start MongoDB container")

	client, err := container.GetClient(ctx)
	if err != nil {
		_ = container.Close(context.Background())
	}
	require.NoError(t, err, "failed to connect to MongoDB")

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
		_ = container.Close(context.Background())
	})

	return client.Database(name)
}
