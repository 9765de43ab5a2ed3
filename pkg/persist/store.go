// Package persist loads and saves navigation state snapshots.
//
// A [Manager] serializes state with a [Codec] and keeps the encoded snapshot
// in a [Store] under an opaque key. Loading is forgiving: a missing key, an
// unreadable backend and a malformed snapshot all read as "no snapshot", so a
// container can always fall back to fresh state. Saving reports failures as
// [errors.PersistenceWriteError] and never retries.
package persist

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned when operating on a closed store.
var ErrStoreClosed = errors.New("persist: store closed")

// Store is a string key-value backend.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
