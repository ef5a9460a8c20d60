package store

import (
	"fmt"
	"strings"
)

type DatabaseType string

const (
	DBTypeSQLite   DatabaseType = "sqlite"
	DBTypeRedis    DatabaseType = "redis"
	DBTypePostgres DatabaseType = "postgres"
	DBTypeDynamo   DatabaseType = "dynamodb"
)

// RemoteListLimit bounds every remote read.
const RemoteListLimit = 500

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// LocalBackend picks the KV backend from the DSN; anything that is not a redis URL
// is a SQLite path.
func LocalBackend(dsn string) DBConfig {
	if strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://") {
		return DBConfig{DSN: dsn, Type: DBTypeRedis}
	}
	return DBConfig{DSN: dsn, Type: DBTypeSQLite}
}

func RemoteBackend(dsn string) (DBConfig, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DBConfig{DSN: dsn, Type: DBTypePostgres}, nil
	case strings.HasPrefix(dsn, "dynamodb://"):
		table := strings.TrimPrefix(dsn, "dynamodb://")
		if table == "" {
			return DBConfig{}, fmt.Errorf("dynamodb DSN needs a table name, like dynamodb://submissions")
		}
		return DBConfig{DSN: table, Type: DBTypeDynamo}, nil
	default:
		return DBConfig{}, fmt.Errorf("unable to determine remote store type from DSN: %s", dsn)
	}
}
