// Package readers resolves input paths to seekable readers. Remote
// schemes are served by pluggable factories; plain local paths are the
// empty-scheme default.
package readers

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Factory opens bucket/key for reading. Implementations must return a
// reader that can Seek anywhere in the object.
type Factory func(ctx context.Context, bucket, key string) (io.ReadSeekCloser, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register installs a factory for a URL scheme, replacing any earlier
// registration for the same scheme.
func Register(scheme string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[scheme] = factory
}

// Open dispatches to the factory registered for scheme.
func Open(ctx context.Context, scheme, bucket, key string) (io.ReadSeekCloser, error) {
	mu.RLock()
	factory, ok := factories[scheme]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported remote file scheme %q", scheme)
	}
	return factory(ctx, bucket, key)
}

// WithReader opens the named object, hands it to f, and closes it when f
// returns.
func WithReader(ctx context.Context, scheme, bucket, key string, f func(remote bool, rs io.ReadSeeker) error) error {
	rs, err := Open(ctx, scheme, bucket, key)
	if err != nil {
		return err
	}
	defer func() {
		_ = rs.Close()
	}()
	return f(scheme != "", rs)
}
