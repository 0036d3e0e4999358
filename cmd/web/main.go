// cmd/web/main.go
//
// QRLink – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load typed config; resolve `vault:` secrets when VAULT_ADDR is set.
//
//  4. Open the MySQL pool and log the live QR-code count.
//
//  5. Open the GeoLite2 database for visitor coordinates.
//
//  6. Assemble the pipeline: hot-record cache → resolver → classifier →
//     redirect controller, plus the management API.
//
//  7. Mount routes:
//
//     • GET  /metrics        – Prometheus registry
//     • /api/v1/*            – management API (behind the auth proxy)
//     • GET  /{shortCode}    – the scan flow
//
//  8. Serve with hardened timeouts, optionally forcing HTTPS.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/qrlink/internal/analytics"
	"github.com/yanizio/qrlink/internal/api"
	"github.com/yanizio/qrlink/internal/config"
	"github.com/yanizio/qrlink/internal/database"
	"github.com/yanizio/qrlink/internal/logger"
	"github.com/yanizio/qrlink/internal/middleware"
	"github.com/yanizio/qrlink/internal/qrcode"
	"github.com/yanizio/qrlink/internal/redirect"
	"github.com/yanizio/qrlink/internal/requestinfo"
	"github.com/yanizio/qrlink/internal/resolver"
	"github.com/yanizio/qrlink/internal/security"
	"github.com/yanizio/qrlink/internal/server"
	"github.com/yanizio/qrlink/internal/vault"
)

const serverEnvPath = "/usr/local/etc/qrlink/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config (+ optional Vault secrets) ──────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	if os.Getenv("VAULT_ADDR") != "" {
		vcli, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		if err := config.ResolveVault(ctx, vcli, cfg); err != nil {
			logOut.Fatalf("resolve vault secrets: %v", err)
		}
	}

	//
	// ── 2.  Database connect ───────────────────────────────────────────
	//
	dsn := fmt.Sprintf(cfg.Database.DSN, cfg.Database.Password)
	logOut.Infow("connecting to database")
	db, err := database.Open(ctx, dsn)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	// Log live-code count as an early sanity check.
	var live int
	_ = db.Get(&live, `SELECT COUNT(*) FROM qr_code WHERE deleted_at IS NULL`)
	logOut.Infow("database online", "live_codes", live)

	//
	// ── 3.  GeoLite2 reader (visitor coordinates) ──────────────────────
	//
	if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
		logOut.Fatalf("open GeoLite2 DB: %v", err)
	}

	//
	// ── 4.  Pipeline assembly ──────────────────────────────────────────
	//
	records := qrcode.NewCache(db, qrcode.FreshTTL, qrcode.IdleTTL, qrcode.MaxEntries)
	defer records.Close()

	res := resolver.New(records, nil)
	classifier := security.NewService(
		cfg.Security.RemoteEndpoint,
		cfg.Security.RemoteToken,
		security.NewChecker(cfg.Security.ProbeTimeout),
	)
	recorder := analytics.NewRecorder(db)
	controller := redirect.New(res, classifier, recorder,
		cfg.Redirect.VerifyDelay, cfg.Redirect.MaxBrandingSec)

	mgmt, err := api.New(db, records, classifier)
	if err != nil {
		logOut.Fatalf("management api: %v", err)
	}

	//
	// ── 5.  Routing ────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api/v1", mgmt.Routes())
	r.Get("/{shortCode}", controller.Scan)

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	//
	// ── 6.  Serve ──────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logOut.Fatalf("http server: %v", err)
	}
}
