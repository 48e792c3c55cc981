package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoURIEnv points tests at an existing server instead of a container.
const MongoURIEnv = "NEUROHUB_TEST_MONGO_URI"

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error
)

func sharedClient() (*mongo.Client, error) {
	mongoOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		uri := os.Getenv(MongoURIEnv)
		if uri == "" {
			var err error
			if uri, err = startContainer(ctx); err != nil {
				mongoErr = err
				return
			}
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			mongoErr = err
			return
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			mongoErr = err
			return
		}
		mongoClient = client
	})
	return mongoClient, mongoErr
}

// startContainer runs a MongoDB container and returns its URI. Docker host
// discovery panics when no runtime is reachable; that is returned as an error.
func startContainer(ctx context.Context) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start mongo container: %v", r)
		}
	}()
	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return "", err
	}
	return container.ConnectionString(ctx)
}

// SetupTestDB returns a fresh, uniquely named database that is dropped when
// the test ends. The server is started once per test binary. Tests are
// skipped when neither MongoURIEnv nor a container runtime is available.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB test in -short mode")
	}
	if os.Getenv(MongoURIEnv) == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}
	client, err := sharedClient()
	if err != nil {
		t.Skipf("MongoDB unavailable: %v", err)
	}

	name := "neurohub_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

// TestContext is the deadline used around test database and API calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
