//go:build integration

package revoke_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStoreAgainstServer(t *testing.T) {
	client := setupRedisContainer(t)
	ctx := context.Background()
	store := revoke.NewRedis(client, "it:")

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(2*time.Second)))

	ok, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.TTL(ctx, "it:jti-1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.Eventually(t, func() bool {
		ok, err := store.IsRevoked(ctx, "jti-1")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
