package dynamo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/guregu/dynamo/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

const testTable = "scratchdrop_submissions"

// setupTestTable starts dynamodb-local and creates the table with its gsi1 index
func setupTestTable(t *testing.T) (*DynamoStore, func()) {
	if testing.Short() {
		t.Skip("skipping dynamodb container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "amazon/dynamodb-local:2.5.2",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"-jar", "DynamoDBLocal.jar", "-inMemory", "-sharedDb"},
			WaitingFor:   wait.ForListeningPort("8000/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8000/tcp")
	require.NoError(t, err)

	client := dynamodb.New(dynamodb.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(fmt.Sprintf("http://%s:%s", host, port.Port())),
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "local", SecretAccessKey: "local"}, nil
		}),
	})

	db := dynamo.NewFromIface(client)
	err = db.CreateTable(testTable, SubmissionRow{}).OnDemand(true).Run(ctx)
	require.NoError(t, err, "Failed to create table")

	s := NewDynamoStoreFromClient(client, testTable)

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
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
	s, cleanup := setupTestTable(t)
	defer cleanup()
	ctx := context.Background()

	var firstID string

	t.Run("append assigns id", func(t *testing.T) {
		id, err := s.Append(ctx, submission("Ada", "2025-01-01T10:00:00.000Z"))
		require.NoError(t, err)
		_, err = uuid.Parse(id)
		assert.NoError(t, err)
		firstID = id

		_, err = s.Append(ctx, submission("Grace", "2025-01-02T10:00:00.000Z"))
		require.NoError(t, err)
	})

	t.Run("put refuses an existing id", func(t *testing.T) {
		row := NewSubmissionRow(firstID, submission("Mallory", "2025-01-03T10:00:00.000Z"))
		err := s.table.Put(row).If("attribute_not_exists(id)").Run(ctx)
		assert.True(t, dynamo.IsCondCheckFailed(err))
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
		require.Len(t, rows, 1)
		assert.Equal(t, "Grace", rows[0].StudentName)
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

func TestListRecentCapsAtLimit(t *testing.T) {
	s, cleanup := setupTestTable(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	total := store.RemoteListLimit + 5
	for i := 0; i < total; i++ {
		createdAt := models.FormatCreatedAt(base.Add(time.Duration(i) * time.Second))
		_, err := s.Append(ctx, submission(fmt.Sprintf("student-%d", i), createdAt))
		require.NoError(t, err)
	}

	rows, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, store.RemoteListLimit)
	assert.Equal(t, fmt.Sprintf("student-%d", total-1), rows[0].StudentName)
	assert.Equal(t, "student-5", rows[len(rows)-1].StudentName)

	rows, err = s.ListRecent(ctx, 10000)
	require.NoError(t, err)
	assert.Len(t, rows, store.RemoteListLimit)
}
