package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Backend != "file" {
		t.Fatalf("backend=%q, want file", cfg.Vault.Backend)
	}
	if cfg.Vault.RetentionDays != 30 {
		t.Fatalf("retentionDays=%d, want 30", cfg.Vault.RetentionDays)
	}
	if cfg.Privacy.PolicyVersion != "1.0" {
		t.Fatalf("policyVersion=%q", cfg.Privacy.PolicyVersion)
	}
	if cfg.Retention() != 30*24*time.Hour {
		t.Fatalf("Retention=%v", cfg.Retention())
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
env:
  serviceName: lifepulse
  appVersion: 2.1.0
vault:
  backend: memory
  retentionDays: 7
privacy:
  policyVersion: "2.0"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env.ServiceName != "lifepulse" || cfg.Env.AppVersion != "2.1.0" {
		t.Fatalf("env: %+v", cfg.Env)
	}
	if cfg.Vault.Backend != "memory" || cfg.Vault.RetentionDays != 7 {
		t.Fatalf("vault: %+v", cfg.Vault)
	}
	if cfg.Privacy.PolicyVersion != "2.0" {
		t.Fatalf("privacy: %+v", cfg.Privacy)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
vault:
  backend: file
  retentionDays: 30
`)
	t.Setenv("LPV_VAULT_BACKEND", "postgres")
	t.Setenv("LPV_VAULT_DSN", "postgres://localhost/vault")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Backend != "postgres" {
		t.Fatalf("env override lost: %+v", cfg.Vault)
	}
	if cfg.Vault.DSN != "postgres://localhost/vault" {
		t.Fatalf("dsn: %q", cfg.Vault.DSN)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}
}

func TestKey(t *testing.T) {
	cfg := &Config{}
	if cfg.Key() != nil {
		t.Fatalf("empty key must decode to nil")
	}

	cfg.Vault.EncryptionKey = "zz"
	if cfg.Key() != nil {
		t.Fatalf("malformed hex must decode to nil")
	}

	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	cfg.Vault.EncryptionKey = hex.EncodeToString(raw)
	key := cfg.Key()
	if len(key) != 32 || key[31] != 31 {
		t.Fatalf("key decode: %v", key)
	}
}
