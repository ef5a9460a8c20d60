package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
)

// setupTestDB starts a throwaway Postgres and applies the migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	postgres, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := postgres.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		postgres.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func submission(name, createdAt string) models.Submission {
	return models.Submission{
		Class:           "8A1",
		StudentName:     name,
		ScratchUsername: "scratcher",
		ProjectID:       "123456",
		ProjectURL:      "https://scratch.mit.edu/projects/123456/",
		ProjectEmbed:    "https://scratch.mit.edu/projects/123456/embed",
		Features:        []string{"paddle", "score"},
		CreatedAt:       createdAt,
		UserAgent:       "test-agent",
	}
}

func TestRemoteStore(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	var firstID string

	t.Run("append assigns id", func(t *testing.T) {
		id, err := s.Append(ctx, submission("Ada", "2025-01-01T10:00:00.000Z"))
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		firstID = id

		_, err = s.Append(ctx, submission("Grace", "2025-01-02T10:00:00.000Z"))
		require.NoError(t, err)
	})

	t.Run("list newest first", func(t *testing.T) {
		rows, err := s.ListRecent(ctx, 500)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Grace", rows[0].StudentName)
		assert.Equal(t, "Ada", rows[1].StudentName)
		assert.Equal(t, models.SourceRemote, rows[0].Source)
		assert.Equal(t, []string{"paddle", "score"}, rows[1].Features)
		assert.Equal(t, firstID, rows[1].ID)
	})

	t.Run("limit is honoured", func(t *testing.T) {
		rows, err := s.ListRecent(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, firstID))

		rows, err := s.ListRecent(ctx, 500)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Grace", rows[0].StudentName)
	})

	t.Run("delete missing", func(t *testing.T) {
		err := s.Delete(ctx, firstID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)

		err = s.Delete(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestNilFeaturesStoredAsEmpty(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sub := submission("Linus", "2025-03-01T09:00:00.000Z")
	sub.Features = nil
	_, err := s.Append(ctx, sub)
	require.NoError(t, err)

	rows, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Features)
}
