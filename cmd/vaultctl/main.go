// Command vaultctl inspects and operates the LifePulse secure vault.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yshyp/lifepulse-vault/internal/config"
	"github.com/yshyp/lifepulse-vault/internal/crypto/codec"
	"github.com/yshyp/lifepulse-vault/internal/keystore"
	filestore "github.com/yshyp/lifepulse-vault/internal/keystore/file"
	"github.com/yshyp/lifepulse-vault/internal/keystore/mem"
	pgstore "github.com/yshyp/lifepulse-vault/internal/keystore/postgres"
	"github.com/yshyp/lifepulse-vault/internal/migrate"
	"github.com/yshyp/lifepulse-vault/internal/privacy"
	"github.com/yshyp/lifepulse-vault/internal/session"
	"github.com/yshyp/lifepulse-vault/internal/vault"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `vaultctl
Usage:
  vaultctl [-config file.yaml] <cmd> [args]

Commands:
  version
  status                                   (integrity report, codec mode, token expiry)
  consent    -type <consentType> [-granted=false]
  show-consent -type <consentType>
  export                                   (portability bundle as JSON)
  cleanup                                  (retention sweep)
  purge                                    (delete all local user data)
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// app wires the vault stack from configuration.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	vault   *vault.Vault
	privacy *privacy.Service
	session *session.Manager
	close   func()
}

func buildApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if cfg.Env.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	var store keystore.Store
	closeFn := func() { _ = logger.Sync() }
	switch cfg.Vault.Backend {
	case "file", "":
		dir := cfg.Vault.Dir
		if dir == "" {
			dir = filestore.DefaultDir()
		}
		store, err = filestore.New(dir)
		if err != nil {
			return nil, err
		}
	case "memory":
		store = mem.New()
	case "postgres":
		if err := migrate.Up(ctx, cfg.Vault.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := pgstore.New(ctx, cfg.Vault.DSN)
		if err != nil {
			return nil, err
		}
		store = pgstore.NewStore(db)
		closeFn = func() {
			db.Close()
			_ = logger.Sync()
		}
	default:
		return nil, fmt.Errorf("unknown vault backend %q", cfg.Vault.Backend)
	}

	v := vault.New(store, codec.New(cfg.Key()), logger, vault.WithMaxDataAge(cfg.Retention()))
	p := privacy.New(v, logger,
		privacy.WithAppVersion(cfg.Env.AppVersion),
		privacy.WithPolicyVersion(cfg.Privacy.PolicyVersion),
	)
	s := session.New(v, p, logger)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: logger, vault: v, privacy: p, session: s, close: closeFn}, nil
}

// main dispatches subcommands over the configured vault.
func main() {
	cfgPath := flag.String("config", "", "config file (YAML)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	if cmd == "version" {
		fmt.Printf("vaultctl %s (%s)\n", version, buildDate)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := buildApp(ctx, *cfgPath)
	if err != nil {
		fail(err)
	}
	defer a.close()

	switch cmd {

	case "status":
		report := a.vault.VerifyIntegrity(ctx)
		out := map[string]any{
			"state":     a.session.State().String(),
			"codecMode": a.vault.CodecMode().String(),
			"integrity": report,
		}
		if tok := a.vault.GetAuthToken(ctx); tok != nil {
			if exp, ok := vault.TokenExpiry(tok.Token); ok {
				out["tokenExpiresAt"] = exp.UTC().Format(time.RFC3339)
			}
		}
		printJSON(out)

	case "consent":
		fs := flag.NewFlagSet("consent", flag.ExitOnError)
		typ := fs.String("type", "", "consent type")
		granted := fs.Bool("granted", true, "consent granted")
		_ = fs.Parse(flag.Args()[1:])
		if *typ == "" {
			fmt.Fprintln(os.Stderr, "need -type")
			os.Exit(1)
		}
		if err := a.session.RecordConsent(ctx, *typ, *granted); err != nil {
			fail(err)
		}
		printJSON(a.privacy.GetConsent(ctx, *typ))

	case "show-consent":
		fs := flag.NewFlagSet("show-consent", flag.ExitOnError)
		typ := fs.String("type", "", "consent type")
		_ = fs.Parse(flag.Args()[1:])
		if *typ == "" {
			fmt.Fprintln(os.Stderr, "need -type")
			os.Exit(1)
		}
		printJSON(a.privacy.GetConsent(ctx, *typ))

	case "export":
		bundle := a.session.ExportUserData(ctx)
		if bundle == nil {
			fail(fmt.Errorf("export unavailable"))
		}
		printJSON(bundle)

	case "cleanup":
		if !a.privacy.CleanupExpiredData(ctx) {
			fail(fmt.Errorf("retention sweep failed"))
		}
		fmt.Println("ok")

	case "purge":
		if !a.session.DeleteAllUserData(ctx) {
			fail(fmt.Errorf("data deletion failed"))
		}
		fmt.Println("ok")

	default:
		usage()
	}
}
