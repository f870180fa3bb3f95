//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/sickfits-server/internal/model"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestLocker_Integration(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := NewClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	locker := NewLocker(client)

	t.Run("exclusive until released", func(t *testing.T) {
		release, err := locker.Acquire(ctx, "checkout:a", time.Minute)
		require.NoError(t, err)

		_, err = locker.Acquire(ctx, "checkout:a", time.Minute)
		assert.ErrorIs(t, err, model.ErrLockHeld)

		other, err := locker.Acquire(ctx, "checkout:b", time.Minute)
		require.NoError(t, err)
		require.NoError(t, other(ctx))

		require.NoError(t, release(ctx))

		again, err := locker.Acquire(ctx, "checkout:a", time.Minute)
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("expired lock is not released by old owner", func(t *testing.T) {
		release, err := locker.Acquire(ctx, "checkout:c", 100*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(300 * time.Millisecond)

		next, err := locker.Acquire(ctx, "checkout:c", time.Minute)
		require.NoError(t, err)

		assert.ErrorIs(t, release(ctx), ErrLockLost)

		_, err = locker.Acquire(ctx, "checkout:c", time.Minute)
		assert.ErrorIs(t, err, model.ErrLockHeld)
		require.NoError(t, next(ctx))
	})
}
