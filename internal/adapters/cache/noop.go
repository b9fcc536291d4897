package cache

import (
	"context"
	"time"
)

// NoopStore is a ports.Cache that never stores anything.
// It is used when caching is disabled by configuration.
type NoopStore struct{}

// NewNoopStore creates a store that always misses.
func NewNoopStore() NoopStore {
	return NoopStore{}
}

// Get always reports a miss.
func (NoopStore) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// SetWithTTL discards the value.
func (NoopStore) SetWithTTL(context.Context, string, string, time.Duration) error {
	return nil
}

// Close is a no-op.
func (NoopStore) Close() error {
	return nil
}
