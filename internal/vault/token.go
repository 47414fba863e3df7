package vault

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yshyp/lifepulse-vault/internal/crypto"
)

// TokenExpiry extracts the expiry claim from a bearer token when it happens
// to be a JWT. The signature is NOT verified; this is display/diagnostics
// only, the backend remains the authority on token validity.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// biometricRecord is the stored shape under KeyBiometricHash.
type biometricRecord struct {
	Salt []byte `json:"salt"`
	Hash []byte `json:"hash"`
}

// StoreBiometricHash salts and hashes a biometric template before storage.
// The raw template is never persisted.
func (v *Vault) StoreBiometricHash(ctx context.Context, template []byte) error {
	salt, err := crypto.RandBytes(16)
	if err != nil {
		return err
	}
	rec := biometricRecord{Salt: salt, Hash: crypto.HashBiometric(template, salt)}
	return v.SetSecureItem(ctx, KeyBiometricHash, rec)
}

// VerifyBiometricTemplate checks a template against the stored hash.
// False when no hash is stored.
func (v *Vault) VerifyBiometricTemplate(ctx context.Context, template []byte) bool {
	var rec biometricRecord
	if !v.GetSecureItem(ctx, KeyBiometricHash, &rec) {
		return false
	}
	return crypto.VerifyBiometric(template, rec.Salt, rec.Hash)
}
