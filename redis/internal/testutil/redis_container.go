package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress returns the address of a shared Testcontainers Redis
// instance. If the container cannot be started (e.g. Docker not available),
// the test is skipped.
func GetRedisAddress(t *testing.T) string {
	t.Helper()

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedisContainer()
	})

	if redisErr != nil {
		t.Skipf("skipping Redis tests: %v", redisErr)
	}
	return redisAddr
}

func startRedisContainer() (addr string, err error) {
	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Testcontainers panics when no Docker host can be found.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting Redis testcontainer panicked: %v", r)
		}
	}()

	redisC, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start Redis testcontainer: %w", err)
	}

	endpoint, err := redisC.Endpoint(ctx, "")
	if err != nil {
		_ = redisC.Terminate(context.Background()) // best-effort cleanup
		return "", err
	}
	return endpoint, nil
}
