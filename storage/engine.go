// Package storage provides the durable key-value engines a PropertyStore can
// persist its tiers into. Every engine stores opaque string values under a
// key with an optional lifetime, which is all the property store needs.
package storage

import (
	"context"
	"time"
)

// Engine defines the interface for storage engine implementations
type Engine interface {
	// Get retrieves the value stored under key. The boolean is false when the
	// key is absent or its lifetime has elapsed.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A lifetime of zero keeps the value until it
	// is overwritten or deleted.
	Set(ctx context.Context, key, value string, lifetime time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any connection held by the engine
	Close(ctx context.Context) error
}
