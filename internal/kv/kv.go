// Package kv provides the string-keyed persistence backend used by the
// document storage engine and ancillary client state (last navigation
// route, remembered bearer token).
//
// Two implementations exist: FileStore persists each key as one file
// under a data directory, MemStore keeps everything in process memory.
// Both are safe for concurrent use.
package kv

import "context"

// Store is minimal async key-value storage. Get reports presence
// explicitly: a missing key is (_, false, nil), never an error.
type Store interface {
	// Get returns the value stored under key, and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string) error

	// Clear deletes every key.
	Clear(ctx context.Context) error

	// Keys returns all stored keys in unspecified order.
	Keys(ctx context.Context) ([]string, error)
}
