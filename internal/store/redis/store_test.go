package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

// setupTestRedis starts a throwaway redis container
func setupTestRedis(t *testing.T) (*KVStore, func()) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	s, err := NewKVStore(ctx, &store.DBConfig{DSN: "redis://" + endpoint, Type: store.DBTypeRedis})
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}
	return s, cleanup
}

func TestRedisKV(t *testing.T) {
	s, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", []byte(`[]`)))
		value, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[]`, string(value))
	})

	t.Run("local store round trip", func(t *testing.T) {
		local := store.NewLocalStore(s, "", 0)
		sub := models.Submission{Class: "8B1", StudentName: "Grace", CreatedAt: "2025-02-02T08:00:00.000Z"}
		require.NoError(t, local.Append(ctx, sub))

		list, err := local.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Grace", list[0].StudentName)
	})
}

func TestNewKVStoreBadURL(t *testing.T) {
	_, err := NewKVStore(context.Background(), &store.DBConfig{DSN: "not-a-url"})
	assert.ErrorContains(t, err, "failed to parse redis URL")
}
