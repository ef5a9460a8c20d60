package app

import (
	"context"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/metrics"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

const reasonNoRemote = "no remote store configured"

type LocalAppender interface {
	Append(ctx context.Context, sub models.Submission) error
}

// SaveResult always carries a mode. Err is set only for degraded writes and
// explains why the record did not reach the remote store.
type SaveResult struct {
	Mode models.Mode
	ID   string
	Err  error
}

// Note is the "why not remote?" line shown next to a degraded confirmation.
func (r SaveResult) Note() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type Coordinator struct {
	local  LocalAppender
	remote store.RemoteProvider
}

func NewCoordinator(local LocalAppender, remote store.RemoteProvider) *Coordinator {
	return &Coordinator{local: local, remote: remote}
}

// Save writes the local copy first, then the remote one if a remote store is
// attached at call time. Local failures are logged and otherwise ignored.
func (c *Coordinator) Save(ctx context.Context, sub models.Submission) SaveResult {
	res := c.save(ctx, sub)
	metrics.SubmissionsTotal.WithLabelValues(string(res.Mode)).Inc()
	return res
}

func (c *Coordinator) save(ctx context.Context, sub models.Submission) SaveResult {
	if c.local != nil {
		if err := c.local.Append(ctx, sub); err != nil {
			metrics.LocalWriteFailures.Inc()
			logger.Error.Printf("Local write failed for %s (%s): %v", sub.StudentName, sub.CreatedAt, err)
		}
	}

	var remote store.RemoteStore
	ok := false
	if c.remote != nil {
		remote, ok = c.remote.Remote()
	}
	if !ok {
		return SaveResult{
			Mode: models.ModeLocal,
			Err:  apperror.DegradedWrite(reasonNoRemote, apperror.ErrRemoteUnavailable),
		}
	}

	id, err := remote.Append(ctx, sub)
	if err != nil {
		logger.Error.Printf("Remote write failed, kept locally: %v", err)
		return SaveResult{
			Mode: models.ModeLocal,
			Err:  apperror.DegradedWrite(err.Error(), err),
		}
	}

	logger.Debug.Printf("Saved submission %s for %s", id, sub.StudentName)
	return SaveResult{Mode: models.ModeRemote, ID: id}
}
