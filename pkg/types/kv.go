package types

import "context"

// KVStore is a string-keyed, string-valued persistent store. Every GuineaPal
// store loads a JSON blob from a key, mutates it in memory, and writes it back.
//
// Implementations must be safe for concurrent use. The contract promises no
// atomicity across keys: a crash between two Set calls can leave related keys
// out of step, and callers are written to tolerate that.
type KVStore interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; an absent key is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key succeeds.
	Remove(ctx context.Context, key string) error

	// MultiRemove deletes every key in keys.
	MultiRemove(ctx context.Context, keys []string) error

	// Keys lists every key currently stored, in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases backend resources. Operations after Close return
	// ErrStoreClosed.
	Close() error
}
