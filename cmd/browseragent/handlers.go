package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ametel01/claw-browser-automation/internal/approval"
	"github.com/ametel01/claw-browser-automation/internal/config"
	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/driver/playwright"
	"github.com/ametel01/claw-browser-automation/internal/logging"
	"github.com/ametel01/claw-browser-automation/internal/pool"
	"github.com/ametel01/claw-browser-automation/internal/store"
	"github.com/ametel01/claw-browser-automation/internal/store/memstore"
	"github.com/ametel01/claw-browser-automation/internal/store/sqlstore"
	"github.com/ametel01/claw-browser-automation/internal/toolserver"
	"github.com/ametel01/claw-browser-automation/internal/trace"
)

// openStore branches on cfg.Store.Driver, mirroring how spec.md's
// persisted-state section treats "memory" as a test/ephemeral escape hatch
// from the default SQLite-backed store.
func openStore(cfg config.StoreConfig) (store.SessionStore, store.ActionLogStore, func() error, error) {
	if cfg.Driver == "memory" {
		m := memstore.New()
		return m, m, func() error { return nil }, nil
	}

	db, err := sqlstore.Open(cfg.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return db, db, db.Close, nil
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})
	logger.Info(ctx, "starting browseragent", "version", version, "commit", commit, "config", configPath)

	sessionStore, actionLogStore, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error(ctx, "close store", "err", err)
		}
	}()

	if err := sessionStore.SuspendAll(); err != nil {
		logger.Warn(ctx, "suspend stale sessions from a prior run", "err", err)
	}

	artifacts := store.NewArtifactWriter(cfg.Artifacts.Dir, cfg.Artifacts.MaxSessions)

	engine, err := playwright.NewEngine()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	p := pool.New(engine, pool.Config{
		MaxContexts:        cfg.Pool.MaxContexts,
		HealthInterval:     cfg.Pool.HealthInterval,
		HealthProbeTimeout: cfg.Pool.HealthProbeTimeout,
		MaxFailures:        cfg.Pool.MaxFailures,
		NavTimeout:         cfg.Pool.NavTimeout,
		ProfilesDir:        cfg.Profiles.Dir,
		LaunchOpts:         driver.LaunchOptions{Headless: true},
	})
	p.Start(ctx)

	approvalResolver := approval.Resolver{AutoApprove: cfg.Approval.AutoApprove}

	ts := toolserver.New(p, sessionStore, actionLogStore, artifacts, trace.New(), approvalResolver, logger, cfg.Engine)

	mcpServer := server.NewMCPServer("browseragent", version, server.WithToolCapabilities(true))
	mcpServer.AddTools(ts.Tools()...)

	stdioServer := server.NewStdioServer(mcpServer)
	stdioServer.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))

	listenCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serveErr := stdioServer.Listen(listenCtx, os.Stdin, os.Stdout)

	logger.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := p.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "pool shutdown", "err", err)
	}
	if err := sessionStore.CloseAll(); err != nil {
		logger.Error(ctx, "mark sessions closed", "err", err)
	}

	return serveErr
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Driver == "memory" {
		slog.Info("store.driver is \"memory\"; nothing to migrate")
		return nil
	}

	db, err := sqlstore.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	defer db.Close()

	slog.Info("migrations applied", "path", cfg.Store.Path)
	return nil
}
