package app

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/scratchdrop/internal/store"
	"github.com/shrimpsizemoose/scratchdrop/internal/store/dynamo"
	"github.com/shrimpsizemoose/scratchdrop/internal/store/postgres"
	"github.com/shrimpsizemoose/scratchdrop/internal/store/redis"
	"github.com/shrimpsizemoose/scratchdrop/internal/store/sqlite"
)

func NewLocalKV(ctx context.Context, dsn string) (store.KV, error) {
	config := store.LocalBackend(dsn)

	switch config.Type {
	case store.DBTypeRedis:
		kv, err := redis.NewKVStore(ctx, &config)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case store.DBTypeSQLite:
		kv, err := sqlite.NewKVStore(&config)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unable to determine local store type from DSN: %s", dsn)
	}
}

func NewLocalStore(ctx context.Context, config *Config) (*store.LocalStore, error) {
	kv, err := NewLocalKV(ctx, config.Local.DSN)
	if err != nil {
		return nil, err
	}
	return store.NewLocalStore(kv, config.Local.Key, config.Local.MaxBytes), nil
}

// NewRemote returns (nil, nil) when no remote DSN is configured.
func NewRemote(ctx context.Context, config *Config) (store.RemoteStore, error) {
	if config.Remote.DSN == "" {
		return nil, nil
	}

	db, err := store.RemoteBackend(config.Remote.DSN)
	if err != nil {
		return nil, err
	}

	switch db.Type {
	case store.DBTypePostgres:
		s, err := postgres.NewPostgresStore(db.DSN, config.Remote.MigrationsDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case store.DBTypeDynamo:
		s, err := dynamo.NewDynamoStore(ctx, db.DSN, config.Remote.Region, config.Remote.Endpoint)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unable to determine remote store type from DSN: %s", config.Remote.DSN)
	}
}
