// Command dashboard renders the static workflow dashboard, optionally
// publishes it to artifact storage, and serves it over HTTP.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/dashboard"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/pkg/storage"
	"github.com/JaimeStill/triage/pkg/web"
)

const storageKey = "dashboard/" + dashboard.FileName

func main() {
	var (
		platformURL = flag.String("platform-url", dashboard.DefaultPlatformURL, "Automation platform URL for resource links")
		serve       = flag.Bool("serve", true, "Serve the dashboard after writing it")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	infra, err := infrastructure.NewClient(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed: ", err)
	}
	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed: ", err)
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		infra.Logger.Warn("startup incomplete", "error", err)
	}

	path, err := publish(infra.Lifecycle.Context(), cfg, infra.Storage, *platformURL, infra.Logger)
	if err != nil {
		log.Fatal(err)
	}

	if *serve {
		srv := web.NewServer(web.ServerOptions{
			Addr:            cfg.Dashboard.Addr(),
			ShutdownTimeout: cfg.ShutdownTimeoutDuration(),
		}, dashboard.Handler(cfg.Dashboard.Dir), infra.Logger)
		if err := srv.Start(infra.Lifecycle); err != nil {
			log.Fatal(err)
		}
		infra.Logger.Info("dashboard available", "url", "http://"+cfg.Dashboard.Addr()+"/"+dashboard.FileName, "file", path)
		infra.Lifecycle.WaitForSignal(os.Interrupt, syscall.SIGTERM)
	}

	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		infra.Logger.Error("shutdown failed", "error", err)
	}
}

// publish writes the dashboard into the configured directory and uploads a
// copy when storage is available. Upload failures are logged, not fatal.
func publish(ctx context.Context, cfg *config.Config, store storage.System, platformURL string, logger *slog.Logger) (string, error) {
	d, err := dashboard.New(dashboard.DefaultPage(platformURL))
	if err != nil {
		return "", err
	}

	path := filepath.Join(cfg.Dashboard.Dir, dashboard.FileName)
	if err := d.Write(path); err != nil {
		return "", err
	}
	logger.Info("dashboard written", "path", path)

	if store == nil {
		return path, nil
	}

	body, err := d.Bytes()
	if err != nil {
		return path, err
	}
	if err := store.Upload(ctx, storageKey, bytes.NewReader(body), "text/html; charset=utf-8"); err != nil {
		logger.Warn("dashboard upload failed", "key", storageKey, "error", err)
		return path, nil
	}
	logger.Info("dashboard uploaded", "key", storageKey)

	return path, nil
}
