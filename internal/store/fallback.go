package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Fallback wraps a remote store and degrades to the in-process Memory store
// when the remote misbehaves. ErrNotFound is a normal answer, not a
// degradation trigger. Once degraded it stays on the local store for the
// rest of the process lifetime; TTLs are then enforced in-process.
type Fallback struct {
	remote   Store
	local    *Memory
	degraded atomic.Bool
	log      zerolog.Logger
}

func NewFallback(remote Store, log zerolog.Logger) *Fallback {
	f := &Fallback{
		remote: remote,
		local:  NewMemory(),
		log:    log,
	}
	if remote == nil {
		f.degraded.Store(true)
	}
	return f
}

// Degraded reports whether the store is running on the in-process map.
func (f *Fallback) Degraded() bool {
	return f.degraded.Load()
}

func (f *Fallback) degrade(op string, err error) {
	if f.degraded.CompareAndSwap(false, true) {
		f.log.Warn().Err(err).Str("op", op).Msg("remote store unreachable, degrading to in-process store")
	}
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	if !f.degraded.Load() {
		value, err := f.remote.Get(ctx, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			return value, err
		}
		f.degrade("get", err)
	}
	return f.local.Get(ctx, key)
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !f.degraded.Load() {
		if err := f.remote.Set(ctx, key, value, ttl); err != nil {
			f.degrade("set", err)
		} else {
			// Mirror into the local store so a later degradation does not
			// lose live rooms.
			return f.local.Set(ctx, key, value, ttl)
		}
	}
	return f.local.Set(ctx, key, value, ttl)
}

func (f *Fallback) Delete(ctx context.Context, key string) error {
	if !f.degraded.Load() {
		if err := f.remote.Delete(ctx, key); err != nil {
			f.degrade("delete", err)
		}
	}
	return f.local.Delete(ctx, key)
}

func (f *Fallback) Close() {
	f.local.Close()
}
