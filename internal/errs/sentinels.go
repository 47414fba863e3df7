// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across keystore/vault/privacy layers.
var (
	// ErrNotFound indicates the requested key does not exist in the keystore.
	ErrNotFound = errors.New("not found")

	// ErrStorageRead indicates the keystore is unreachable or denied access.
	ErrStorageRead = errors.New("storage read failed")

	// ErrDecryption indicates ciphertext is malformed, tampered or keyed differently.
	ErrDecryption = errors.New("decryption failed")

	// ErrIntegrity indicates stale or inconsistent stored state.
	ErrIntegrity = errors.New("integrity violation")

	// ErrNotInitialized indicates a session operation before Init completed.
	ErrNotInitialized = errors.New("session not initialized")
)
