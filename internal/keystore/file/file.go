// Package file implements a keystore backed by one file per key under a
// private directory, the closest desktop analog of the platform secure store.
package file

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yshyp/lifepulse-vault/internal/errs"
)

// Store persists each key as a 0600 file inside a 0700 directory.
type Store struct {
	dir string
}

// New creates the store directory if needed and returns the store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the per-user keystore location, honoring XDG_DATA_HOME.
func DefaultDir() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "lifepulse", "vault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "lifepulse", "vault")
}

// path encodes the key so arbitrary key strings map to safe file names.
func (s *Store) path(key string) string {
	name := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(key))
	return filepath.Join(s.dir, name)
}

// Get reads the value for key, or errs.ErrNotFound when the file is absent.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errs.ErrNotFound
		}
		return "", fmt.Errorf("%w: %w", errs.ErrStorageRead, err)
	}
	return string(b), nil
}

// Set writes the value atomically via a temp file rename.
func (s *Store) Set(_ context.Context, key, value string) error {
	p := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes the key's file; an absent file is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
