// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file — first `<root>/conf/.env`, then jail-wide fallback.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `QRLINK_`, where `__` maps to “.”
     (e.g., `QRLINK_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.  Values of the form `vault:<path>#<key>`
are resolved through `ResolveVault` before validation fires, so the
required-field rules apply to the *resolved* secrets.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/qrlink/internal/vault"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves QRLINK_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("QRLINK_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: QRLINK_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("QRLINK_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"geoip", cfg.GeoIP.DBPath != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// applyDefaults fills tunables that YAML may omit.
func applyDefaults(cfg *Config) {
	if cfg.Security.ProbeTimeout <= 0 {
		cfg.Security.ProbeTimeout = 5 * time.Second
	}
	if cfg.Redirect.VerifyDelay <= 0 {
		cfg.Redirect.VerifyDelay = 3 * time.Second
	}
	if cfg.Redirect.MaxBrandingSec <= 0 {
		cfg.Redirect.MaxBrandingSec = 10
	}
}

/*──────────────────────────── vault resolution ─────────────────────────────*/

const vaultPrefix = "vault:"

// ResolveVault rewrites every `vault:<path>#<key>` value in cfg with the
// secret fetched from Vault.  Already-plain values pass through untouched,
// so deployments without Vault simply keep secrets in env overrides.
func ResolveVault(ctx context.Context, cli *vault.Client, cfg *Config) error {
	fields := []*string{
		&cfg.Database.Password,
		&cfg.Security.RemoteToken,
	}
	for _, f := range fields {
		if !strings.HasPrefix(*f, vaultPrefix) {
			continue
		}
		ref := strings.TrimPrefix(*f, vaultPrefix)
		path, key, ok := strings.Cut(ref, "#")
		if !ok {
			continue // malformed reference; validation will catch empties
		}
		val, err := cli.GetKV(ctx, path, key, 10*time.Minute)
		if err != nil {
			zap.S().Errorw("vault secret resolve failed", "path", path, "key", key, "err", err)
			return err
		}
		*f = val
	}
	current.Store(cfg)
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
