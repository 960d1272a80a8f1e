package store

import (
	"context"
	"errors"
	"fmt"
)

// Namespaces used by the client.
const (
	NamespaceSession       = "session"
	NamespaceSearchHistory = "search_history"
)

// ErrUnknownDriver is returned by Open for unsupported drivers.
var ErrUnknownDriver = errors.New("unknown store driver")

// KV is durable namespaced key-value storage.
type KV interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Keys(ctx context.Context, namespace string) ([]string, error)
	Clear(ctx context.Context, namespace string) error
	Close() error
}

// Options selects and configures a KV backend.
type Options struct {
	Driver      string
	DSN         string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the KV backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case "sqlite3", "postgres":
		return OpenSQL(ctx, opts.Driver, opts.DSN)
	case "redis":
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
