// Package keystore defines the string-keyed secure store interface
// implemented by concrete backends.
package keystore

import "context"

// Store is the platform secure-keystore abstraction: a flat, process-wide
// string key/value space. No per-user namespacing; a single logged-in user
// at a time is assumed.
type Store interface {
	// Get returns the value for key, or errs.ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)
	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
