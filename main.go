// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/attested-vote/attest"
	"github.com/danielhkuo/attested-vote/cliparse"
	"github.com/danielhkuo/attested-vote/db"
	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/router"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		return err
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect and verify
	dbConn, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, dialect); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	version, _ := db.SchemaVersion(ctx, dbConn)
	slog.Info("Database schema ready", "type", dialect, "version", version)

	dispatcher, err := newDispatcher(ctx, cfg)
	if err != nil {
		return err
	}

	ledger := db.NewLedger(dbConn, dialect)
	mux := router.NewRouter(ledger, dispatcher, cfg)

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Attestation runs inside the request
		WriteTimeout: cfg.AttestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown incomplete", "error", err)
			server.Close()
		}
	}()

	slog.Info("Listening", "port", cfg.Port, "dev_tokens", cfg.DevTokens)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server closed")
	return nil
}

// newDispatcher wires one verifier per OS from the configuration. An OS with
// no configured verifier rejects every token.
func newDispatcher(ctx context.Context, cfg cliparse.Config) (*attest.Dispatcher, error) {
	var android, ios attest.Verifier

	if cfg.PlayPackageName != "" && cfg.GoogleCredentialsFile != "" {
		creds, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading google credentials: %w", err)
		}
		pi, err := attest.NewPlayIntegrity(ctx, cfg.PlayPackageName, creds)
		if err != nil {
			return nil, err
		}
		android = pi
		slog.Info("Play Integrity enabled", "package", cfg.PlayPackageName)
	}

	if cfg.AppleKeyID != "" && cfg.AppleTeamID != "" && cfg.AppleP8 != "" {
		dc, err := attest.NewDeviceCheck(cfg.AppleKeyID, cfg.AppleTeamID, []byte(cfg.AppleP8), cfg.AppleDevelopment)
		if err != nil {
			return nil, err
		}
		ios = dc
		slog.Info("DeviceCheck enabled", "development", cfg.AppleDevelopment)
	}

	if cfg.DevTokens {
		slog.Warn("development attestation tokens accepted")
		android = withDevToken(android, attest.DevAndroidToken)
		ios = withDevToken(ios, attest.DevIOSToken)
	}

	if android == nil {
		slog.Warn("no Android verifier configured; android votes will be rejected")
	}
	if ios == nil {
		slog.Warn("no iOS verifier configured; ios votes will be rejected")
	}

	return &attest.Dispatcher{
		Android: android,
		IOS:     ios,
		Timeout: cfg.AttestTimeout,
	}, nil
}

// withDevToken accepts the development token without a round trip to the
// platform; anything else goes to v.
func withDevToken(v attest.Verifier, token string) attest.Verifier {
	dev := attest.Static{Token: token}
	if v == nil {
		return dev
	}
	return attest.Fallback{Primary: dev, Secondary: v}
}
