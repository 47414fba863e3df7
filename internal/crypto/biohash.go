// Package crypto implements hashing of biometric templates before storage.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for on-device hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashBiometric returns the Argon2id hash of a biometric template using the
// provided salt. The raw template never reaches the keystore.
func HashBiometric(template, salt []byte) []byte {
	return argon2.IDKey(template, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyBiometric verifies a template against the expected hash and salt.
func VerifyBiometric(template, salt, expected []byte) bool {
	got := HashBiometric(template, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
