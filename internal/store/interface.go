package store

import (
	"context"

	"github.com/shrimpsizemoose/scratchdrop/internal/models"
)

// KV is the backend under the local list store: one opaque value per key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// RemoteStore is a collection with store-assigned keys.
type RemoteStore interface {
	Append(ctx context.Context, sub models.Submission) (string, error)
	// ListRecent returns at most limit rows, newest created_at first, tagged remote.
	ListRecent(ctx context.Context, limit int) ([]models.Row, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// RemoteProvider is probed on every call; a remote may appear after start-up.
type RemoteProvider interface {
	Remote() (RemoteStore, bool)
}
