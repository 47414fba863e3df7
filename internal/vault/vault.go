// Package vault exposes typed secure accessors per data category on top of
// the encryption codec and the keystore backend.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yshyp/lifepulse-vault/internal/crypto/codec"
	"github.com/yshyp/lifepulse-vault/internal/errs"
	"github.com/yshyp/lifepulse-vault/internal/keystore"
	"github.com/yshyp/lifepulse-vault/internal/model"
)

// Keystore keys. These exact strings are shared with existing app installs;
// changing one orphans the data stored under it.
const (
	KeyAuthToken     = "user_auth_token"
	KeyUserData      = "encrypted_user_data"
	KeyMedicalData   = "encrypted_medical_data"
	KeyLocationData  = "encrypted_location_data"
	KeyBiometricHash = "biometric_hash"
	KeyConsent       = "user_consent"
	KeyFCMToken      = "fcmToken"
)

// allKeys drives ClearAll. Order is not significant.
var allKeys = []string{
	KeyAuthToken,
	KeyUserData,
	KeyMedicalData,
	KeyLocationData,
	KeyBiometricHash,
	KeyConsent,
	KeyFCMToken,
}

// DefaultMaxDataAge is the retention threshold applied to the user profile
// by integrity checks and the retention sweep.
const DefaultMaxDataAge = 30 * 24 * time.Hour

// Vault is the secure storage facade. Reads never propagate errors to
// callers: missing or corrupt state yields nil so session bootstrap stays
// resilient. Writes report errors.
type Vault struct {
	store  keystore.Store
	codec  *codec.Codec
	log    *zap.Logger
	maxAge time.Duration

	now func() time.Time // overridable in tests
}

// Option configures a Vault.
type Option func(*Vault)

// WithMaxDataAge overrides the profile retention threshold.
func WithMaxDataAge(d time.Duration) Option {
	return func(v *Vault) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

// New constructs the facade over a keystore and a negotiated codec.
func New(store keystore.Store, c *codec.Codec, log *zap.Logger, opts ...Option) *Vault {
	v := &Vault{
		store:  store,
		codec:  c,
		log:    log,
		maxAge: DefaultMaxDataAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.codec.Mode() == codec.ModeEncoded {
		v.log.Warn("encryption unavailable, falling back to reversible encoding",
			zap.String("mode", v.codec.Mode().String()))
	}
	return v
}

// CodecMode reports whether stored values are confidential-grade.
func (v *Vault) CodecMode() codec.Mode { return v.codec.Mode() }

// MaxDataAge returns the active retention threshold.
func (v *Vault) MaxDataAge() time.Duration { return v.maxAge }

// SetSecureItem encrypts and stores any JSON-serializable value under key.
func (v *Vault) SetSecureItem(ctx context.Context, key string, value any) error {
	enc, err := v.codec.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	if err := v.store.Set(ctx, key, enc); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// GetSecureItem loads and decrypts the value under key into out. It reports
// false on any failure (absent key, storage error, tampered ciphertext)
// rather than returning an error; failures other than absence are logged.
func (v *Vault) GetSecureItem(ctx context.Context, key string, out any) bool {
	enc, err := v.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			v.log.Warn("secure read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := v.codec.Decrypt(enc, out); err != nil {
		v.log.Warn("secure decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// RemoveSecureItem deletes the value under key.
func (v *Vault) RemoveSecureItem(ctx context.Context, key string) error {
	return v.store.Delete(ctx, key)
}

// StoreAuthToken persists the bearer credential with a fresh timestamp.
func (v *Vault) StoreAuthToken(ctx context.Context, token string) error {
	return v.SetSecureItem(ctx, KeyAuthToken, model.AuthToken{
		Token:     token,
		Timestamp: v.now().UnixMilli(),
	})
}

// GetAuthToken returns the stored credential, or nil if absent/unreadable.
func (v *Vault) GetAuthToken(ctx context.Context) *model.AuthToken {
	var t model.AuthToken
	if !v.GetSecureItem(ctx, KeyAuthToken, &t) || t.Token == "" {
		return nil
	}
	return &t
}

// RemoveAuthToken deletes the credential (logout).
func (v *Vault) RemoveAuthToken(ctx context.Context) error {
	return v.RemoveSecureItem(ctx, KeyAuthToken)
}

// StoreUserData persists the sanitized profile. The write stamps the
// profile with the current time unless the caller already did; retention
// decisions key off this value.
func (v *Vault) StoreUserData(ctx context.Context, p model.UserProfile) error {
	if p.Timestamp == 0 {
		p.Timestamp = v.now().UnixMilli()
	}
	return v.SetSecureItem(ctx, KeyUserData, p)
}

// GetUserData returns the stored profile, or nil.
func (v *Vault) GetUserData(ctx context.Context) *model.UserProfile {
	var p model.UserProfile
	if !v.GetSecureItem(ctx, KeyUserData, &p) {
		return nil
	}
	return &p
}

// StoreMedicalData persists the medical record under its own key, separate
// from the profile by construction.
func (v *Vault) StoreMedicalData(ctx context.Context, m model.MedicalRecord) error {
	if m.Timestamp == 0 {
		m.Timestamp = v.now().UnixMilli()
	}
	return v.SetSecureItem(ctx, KeyMedicalData, m)
}

// GetMedicalData returns the stored medical record, or nil.
func (v *Vault) GetMedicalData(ctx context.Context) *model.MedicalRecord {
	var m model.MedicalRecord
	if !v.GetSecureItem(ctx, KeyMedicalData, &m) {
		return nil
	}
	return &m
}

// StoreLocationData persists the last known position.
func (v *Vault) StoreLocationData(ctx context.Context, l model.LocationRecord) error {
	if l.Timestamp == 0 {
		l.Timestamp = v.now().UnixMilli()
	}
	return v.SetSecureItem(ctx, KeyLocationData, l)
}

// GetLocationData returns the stored position, or nil.
func (v *Vault) GetLocationData(ctx context.Context) *model.LocationRecord {
	var l model.LocationRecord
	if !v.GetSecureItem(ctx, KeyLocationData, &l) {
		return nil
	}
	return &l
}

// StoreFCMToken persists the push registration token.
func (v *Vault) StoreFCMToken(ctx context.Context, token string) error {
	return v.SetSecureItem(ctx, KeyFCMToken, token)
}

// GetFCMToken returns the push registration token, or "".
func (v *Vault) GetFCMToken(ctx context.Context) string {
	var t string
	if !v.GetSecureItem(ctx, KeyFCMToken, &t) {
		return ""
	}
	return t
}

// ClearAll removes every known key. Best effort: individual failures do not
// abort the rest and are reported as a single aggregate error. Idempotent.
func (v *Vault) ClearAll(ctx context.Context) error {
	var errAll error
	for _, key := range allKeys {
		if err := v.store.Delete(ctx, key); err != nil {
			errAll = errors.Join(errAll, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errAll
}

// VerifyIntegrity reads back the core categories and applies the profile age
// check. Read-only: callers decide whether to clear data on failure.
func (v *Vault) VerifyIntegrity(ctx context.Context) model.IntegrityReport {
	report := model.IntegrityReport{IsValid: true}

	report.HasAuthToken = v.GetAuthToken(ctx) != nil
	report.HasMedicalData = v.GetMedicalData(ctx) != nil
	report.HasFCMToken = v.GetFCMToken(ctx) != ""

	profile := v.GetUserData(ctx)
	report.HasUserData = profile != nil
	if profile != nil && profile.Timestamp > 0 {
		age := v.now().Sub(time.UnixMilli(profile.Timestamp))
		if age > v.maxAge {
			report.IsValid = false
			report.Error = fmt.Sprintf("%v: user data older than %s", errs.ErrIntegrity, v.maxAge)
		}
	}
	return report
}
