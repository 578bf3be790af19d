// Package kv is the storefront's local key-value storage: the place the
// session token, cached user, cart and API base override live between calls.
package kv

import (
	"context"
	"fmt"
	"strings"
)

const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyCart     = "cart"
	KeyAPIURL   = "API_URL"
	KeyAdminURL = "ADMIN_URL"
	KeyCatalog  = "catalog"
)

// Store holds raw string values by key. A missing key is reported with
// ok == false and a nil error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open picks a backend from the DSN:
//
//	memory:                      in-process map
//	redis://, rediss://          Redis
//	postgres://, postgresql://   PostgreSQL through gorm
//	anything else                SQLite file path through gorm
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory:":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return NewRedis(ctx, RedisOptions{URL: dsn, Prefix: "momento:"})
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		s, err := OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	}
}
