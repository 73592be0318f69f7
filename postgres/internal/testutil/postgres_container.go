package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	postgresOnce sync.Once
	postgresDSN  string
	postgresErr  error
)

// GetPostgresEndpoint returns a DSN for a shared Testcontainers PostgreSQL
// instance. If the container cannot be started (e.g. Docker not available),
// the test is skipped.
func GetPostgresEndpoint(t *testing.T) string {
	t.Helper()

	postgresOnce.Do(func() {
		postgresDSN, postgresErr = startPostgresContainer()
	})

	if postgresErr != nil {
		t.Skipf("skipping PostgreSQL tests: %v", postgresErr)
	}
	return postgresDSN
}

func startPostgresContainer() (dsn string, err error) {
	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Testcontainers panics when no Docker host can be found.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting PostgreSQL testcontainer panicked: %v", r)
		}
	}()

	postgresC, err := testcontainers.Run(
		ctx, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				// Verify SQL connectivity using the mapped host:port.
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://reqflow:reqflow@%s:%s/reqflow_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "reqflow",
			"POSTGRES_PASSWORD": "reqflow",
			"POSTGRES_DB":       "reqflow_test",
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL testcontainer: %w", err)
	}

	endpoint, err := postgresC.Endpoint(ctx, "")
	if err != nil {
		_ = postgresC.Terminate(context.Background())
		return "", err
	}
	return fmt.Sprintf("postgres://reqflow:reqflow@%s/reqflow_test?sslmode=disable", endpoint), nil
}
