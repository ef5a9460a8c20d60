package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

func setupTestService(t *testing.T) (*Service, func()) {
	cfg, err := ParseConfig("inline", []byte("[server]\nport = \":0\"\n[local]\ndsn = \":memory:\"\n"))
	require.NoError(t, err)

	local, err := NewLocalStore(context.Background(), cfg)
	require.NoError(t, err)

	s := NewServiceWith(cfg, local, store.NewRemoteHandle(nil), nil)
	s.now = func() time.Time { return time.Date(2025, 3, 14, 15, 9, 26, 535000000, time.UTC) }

	return s, func() {
		require.NoError(t, s.Close())
	}
}

func validForm() models.Form {
	return models.Form{
		Class:           "8B2",
		StudentName:     "Grace Hopper",
		ScratchUsername: "gracehop",
		ProjectLink:     "scratch.mit.edu/projects/424242/editor",
		Features:        []string{"paddle", "paddle", " score "},
	}
}

func TestServiceSubmit(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("local mode", func(t *testing.T) {
		sub, res, err := s.Submit(ctx, validForm(), "test-agent")
		require.NoError(t, err)

		assert.Equal(t, models.ModeLocal, res.Mode)
		assert.Equal(t, "no remote store configured", res.Note())
		assert.Equal(t, "424242", sub.ProjectID)
		assert.Equal(t, "https://scratch.mit.edu/projects/424242/", sub.ProjectURL)
		assert.Equal(t, []string{"paddle", "score"}, sub.Features)
		assert.Equal(t, "2025-03-14T15:09:26.535Z", sub.CreatedAt)

		entries, err := s.Local.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, sub, entries[0].Submission)
	})

	t.Run("validation error", func(t *testing.T) {
		form := validForm()
		form.StudentName = "Al"

		_, _, err := s.Submit(ctx, form, "test-agent")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "Please enter your full name.", err.Error())

		entries, err := s.Local.List(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestServicePreview(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()

	link, err := s.Preview("123456789")
	require.NoError(t, err)
	assert.Equal(t, "https://scratch.mit.edu/projects/123456789/embed", link.Embed)

	_, err = s.Preview("")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Paste your Scratch project link.", err.Error())
}

func TestServiceRowPreview(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, _, err := s.Submit(ctx, validForm(), "ua")
	require.NoError(t, err)
	// a record whose link never normalized
	require.NoError(t, s.Local.Append(ctx, models.Submission{
		StudentName: "Bad Link",
		ProjectURL:  "not a link",
		CreatedAt:   "2025-03-15T00:00:00.000Z",
	}))

	_, err = s.Engine.Load(ctx)
	require.NoError(t, err)

	_, embed, err := s.RowPreview("local_2025-03-14T15:09:26.535Z")
	require.NoError(t, err)
	assert.Equal(t, "https://scratch.mit.edu/projects/424242/embed", embed)

	_, _, err = s.RowPreview("local_2025-03-15T00:00:00.000Z")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "No project ID found for this submission (bad link).", err.Error())

	_, _, err = s.RowPreview("missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestServiceConnectRemote(t *testing.T) {
	s, cleanup := setupTestService(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.ConnectRemote(ctx))
	_, ok := s.Remote.Remote()
	assert.False(t, ok)

	s.Config.Remote.DSN = "mysql://nope"
	assert.ErrorContains(t, s.ConnectRemote(ctx), "unable to determine remote store type")
	_, ok = s.Remote.Remote()
	assert.False(t, ok)
}
