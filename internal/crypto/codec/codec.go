// Package codec turns JSON-serializable values into strings suitable for the
// keystore and back, using XChaCha20-Poly1305 when key material permits.
package codec

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/yshyp/lifepulse-vault/internal/errs"
)

// Mode reports which transformation the codec applies. Negotiated once at
// construction and fixed for the codec's lifetime.
type Mode int

const (
	// ModeEncrypted seals values with XChaCha20-Poly1305.
	ModeEncrypted Mode = iota + 1
	// ModeEncoded is the fallback when no usable key is available: values
	// are reversibly encoded, NOT confidential-grade.
	ModeEncoded
)

// String returns the mode name used in logs and security events.
func (m Mode) String() string {
	switch m {
	case ModeEncrypted:
		return "encrypted"
	case ModeEncoded:
		return "encoded-only"
	default:
		return "unknown"
	}
}

// Value prefixes make the at-rest representation distinguishable, so an
// encoded-only value is never mistaken for ciphertext.
const (
	prefixEncrypted = "v1."
	prefixEncoded   = "b64."
)

// KeyLen is the required symmetric key length in bytes.
const KeyLen = chacha20poly1305.KeySize

// Codec encrypts or encodes values per its negotiated mode.
type Codec struct {
	mode Mode
	aead cipher.AEAD
}

// New negotiates the codec capability once: a valid 32-byte key yields an
// encrypting codec, anything else falls back to reversible encoding. Callers
// should inspect Mode and warn/log when encryption is unavailable.
func New(key []byte) *Codec {
	if len(key) == KeyLen {
		if aead, err := chacha20poly1305.NewX(key); err == nil {
			return &Codec{mode: ModeEncrypted, aead: aead}
		}
	}
	return &Codec{mode: ModeEncoded}
}

// Mode returns the negotiated mode.
func (c *Codec) Mode() Mode { return c.mode }

// Encrypt serializes v to JSON and seals or encodes it per the active mode.
func (c *Codec) Encrypt(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	if c.mode == ModeEncoded {
		return prefixEncoded + base64.StdEncoding.EncodeToString(plain), nil
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := make([]byte, 0, len(nonce)+len(plain)+c.aead.Overhead())
	out = append(out, nonce...)
	out = append(out, c.aead.Seal(nil, nonce, plain, nil)...)
	return prefixEncrypted + base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt into out. The recorded mode decides the expected
// representation; a prefix mismatch or tampered ciphertext fails with
// errs.ErrDecryption.
func (c *Codec) Decrypt(s string, out any) error {
	plain, err := c.open(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: unmarshal: %w", errs.ErrDecryption, err)
	}
	return nil
}

func (c *Codec) open(s string) ([]byte, error) {
	if c.mode == ModeEncoded {
		raw, ok := strings.CutPrefix(s, prefixEncoded)
		if !ok {
			return nil, fmt.Errorf("%w: not an encoded value", errs.ErrDecryption)
		}
		plain, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrDecryption, err)
		}
		return plain, nil
	}
	raw, ok := strings.CutPrefix(s, prefixEncrypted)
	if !ok {
		return nil, fmt.Errorf("%w: not a sealed value", errs.ErrDecryption)
	}
	blob, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDecryption, err)
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: blob too short", errs.ErrDecryption)
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	plain, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDecryption, err)
	}
	return plain, nil
}
