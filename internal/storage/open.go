package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Config struct {
	Driver string
	DSN    string
	Redis  RedisOptions
}

// Open returns the backend selected by cfg.Driver; sqlite is the default.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		return NewMemory(), nil
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file:resident.db"
		}
		return OpenSQLite(ctx, dsn)
	case DriverRedis:
		return OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
