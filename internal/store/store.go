// Package store provides keyed blob storage with per-entry TTL, backed by
// redis with an in-process fallback, plus typed accessors for game state
// and reconnect tokens.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
