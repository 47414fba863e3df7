package file

import (
	"context"
	"errors"
	"testing"

	"github.com/yshyp/lifepulse-vault/internal/errs"
)

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.Get(ctx, "user_auth_token"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing key: err=%v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "user_auth_token", "v1.abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "user_auth_token")
	if err != nil || got != "v1.abc" {
		t.Fatalf("Get: got=%q err=%v", got, err)
	}

	// Overwrite
	if err := s.Set(ctx, "user_auth_token", "v1.def"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "user_auth_token")
	if got != "v1.def" {
		t.Fatalf("overwrite: got=%q", got)
	}

	if err := s.Delete(ctx, "user_auth_token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "user_auth_token"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("after delete: err=%v, want ErrNotFound", err)
	}

	// Idempotent delete
	if err := s.Delete(ctx, "user_auth_token"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestStore_KeyEncoding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Keys with separators must not escape the store directory.
	key := "../weird/key name"
	if err := s.Set(ctx, key, "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil || got != "x" {
		t.Fatalf("Get: got=%q err=%v", got, err)
	}
}

func TestStore_IsolatedKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = s.Set(ctx, "encrypted_user_data", "profile")
	_ = s.Set(ctx, "encrypted_medical_data", "medical")

	if err := s.Delete(ctx, "encrypted_user_data"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := s.Get(ctx, "encrypted_medical_data")
	if err != nil || got != "medical" {
		t.Fatalf("sibling key affected: got=%q err=%v", got, err)
	}
}
