package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/namematch/internal/admin"
	"github.com/JonMunkholm/namematch/internal/config"
	"github.com/JonMunkholm/namematch/internal/core"
	"github.com/JonMunkholm/namematch/internal/logging"
	"github.com/JonMunkholm/namematch/internal/sheet"
	"github.com/JonMunkholm/namematch/internal/store"
	"github.com/JonMunkholm/namematch/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"audit_enabled", cfg.Database.Enabled(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"layout", cfg.Layout,
	)

	// Background jobs stop on cancel.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	var (
		auditor core.Auditor
		pinger  web.Pinger
	)
	if cfg.Database.Enabled() {
		pool, err := store.Connect(jobCtx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		}

		runs := store.New(pool)
		if err := runs.EnsureSchema(jobCtx); err != nil {
			slog.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}
		auditor, pinger = runs, runs

		retention := &admin.Retention{Store: runs, Keep: cfg.Database.RunRetention}
		go retention.Start(jobCtx, cfg.Database.PurgeInterval)
	} else {
		slog.Info("DATABASE_URL not set, audit trail disabled")
	}

	service := core.NewService(sheet.Parse, auditor, cfg.ServiceOptions())
	go service.Workspaces().StartSweeper(jobCtx, cfg.Workspace.SweepInterval)

	server := web.NewServer(service, cfg, pinger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight parses finish before closing connections.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for parses to complete", "active", status.Active)
			if err := service.WaitForParses(shutdownCtx); err != nil {
				slog.Warn("parses did not complete in time", "error", err)
			} else {
				slog.Info("all parses completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(jobCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
