// Package testredis provides a Redis URL for cache tests.
package testredis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// URLEnv points the tests at an existing Redis instead of a container.
const URLEnv = "JOURNAL_TEST_REDIS_URL"

// StartRedis returns a redis:// URL for a throwaway database. Without
// URLEnv it starts a redis:7 container, and skips the test when no
// container runtime is reachable.
func StartRedis(tb testing.TB) string {
	tb.Helper()
	if url := os.Getenv(URLEnv); url != "" {
		return url
	}
	testcontainers.SkipIfProviderIsNotHealthy(tb.(*testing.T))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			Cmd:          []string{"redis-server", "--save", "", "--appendonly", "no"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(tb, c)
	if err != nil {
		tb.Fatalf("redis container: %v", err)
	}

	url, err := c.PortEndpoint(ctx, "6379/tcp", "redis")
	if err != nil {
		tb.Fatalf("redis endpoint: %v", err)
	}
	return url
}
