// Package config loads vault configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix marks environment overrides, e.g. LPV_VAULT_BACKEND=postgres.
const envPrefix = "LPV_"

// Config is the full runtime configuration.
type Config struct {
	Env struct {
		ServiceName string `koanf:"serviceName"`
		AppVersion  string `koanf:"appVersion"`
		Debug       bool   `koanf:"debug"`
	} `koanf:"env"`

	Vault struct {
		// Backend selects the keystore: file, memory or postgres.
		Backend string `koanf:"backend"`
		// Dir is the file backend's directory; empty means the per-user default.
		Dir string `koanf:"dir"`
		// DSN is the postgres backend's connection string.
		DSN string `koanf:"dsn"`
		// EncryptionKey is the hex-encoded 32-byte symmetric key. Missing or
		// malformed key material degrades the codec to encoded-only mode.
		EncryptionKey string `koanf:"encryptionKey"`
		// RetentionDays is the profile retention threshold.
		RetentionDays int `koanf:"retentionDays"`
	} `koanf:"vault"`

	Privacy struct {
		PolicyVersion string `koanf:"policyVersion"`
	} `koanf:"privacy"`
}

// Load reads the YAML file at path (optional) and applies LPV_* environment
// overrides on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	existing := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// LPV_VAULT_ENCRYPTIONKEY -> vault.encryptionKey, re-aligned
			// with the casing of keys already loaded from YAML so the
			// override replaces instead of duplicating.
			key = strings.TrimPrefix(key, envPrefix)
			return canonicalizeEnvKey(key, existing), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: false}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Env.ServiceName == "" {
		cfg.Env.ServiceName = "lifepulse-vault"
	}
	if cfg.Env.AppVersion == "" {
		cfg.Env.AppVersion = "dev"
	}
	if cfg.Vault.Backend == "" {
		cfg.Vault.Backend = "file"
	}
	if cfg.Vault.RetentionDays <= 0 {
		cfg.Vault.RetentionDays = 30
	}
	if cfg.Privacy.PolicyVersion == "" {
		cfg.Privacy.PolicyVersion = "1.0"
	}
	return cfg, nil
}

// canonicalizeEnvKey converts VAULT_ENCRYPTIONKEY to a dotted path, taking
// each segment's casing from the already-loaded config map when a
// case-insensitive match exists.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	current := existing
	for i, seg := range segments {
		for key, val := range current {
			if strings.EqualFold(key, seg) {
				segments[i] = key
				if sub, ok := val.(map[string]any); ok {
					current = sub
				} else {
					current = nil
				}
				break
			}
		}
		if current == nil {
			break
		}
	}
	return strings.Join(segments, ".")
}

// Retention returns the retention threshold as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Vault.RetentionDays) * 24 * time.Hour
}

// Key decodes the configured encryption key. Nil when absent or malformed;
// the codec then negotiates encoded-only mode.
func (c *Config) Key() []byte {
	if c.Vault.EncryptionKey == "" {
		return nil
	}
	b, err := hex.DecodeString(c.Vault.EncryptionKey)
	if err != nil {
		return nil
	}
	return b
}
