package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error
)

// MongoClient returns a client connected to a MongoDB container shared by
// the test binary. The test is skipped when no container can be started.
func MongoClient(t *testing.T) *mongo.Client {
	t.Helper()

	mongoOnce.Do(func() {
		mongoClient, mongoErr = connectMongo()
	})

	if mongoErr != nil {
		t.Skipf("skipping MongoDB tests: %v", mongoErr)
	}
	return mongoClient
}

func connectMongo() (client *mongo.Client, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Testcontainers panics when no Docker host can be found.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting MongoDB testcontainer panicked: %v", r)
		}
	}()

	c, err := testcontainers.Run(
		ctx, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("Waiting for connections"),
			).WithDeadline(2*time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start MongoDB testcontainer: %w", err)
	}

	uri, err := c.PortEndpoint(ctx, "27017/tcp", "mongodb")
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, err
	}

	client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, fmt.Errorf("connect to %s: %w", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		_ = c.Terminate(context.Background())
		return nil, fmt.Errorf("ping %s: %w", uri, err)
	}
	return client, nil
}
