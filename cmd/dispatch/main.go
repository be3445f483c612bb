// Command dispatch starts the intent identification process on the
// orchestrator and polls the job until it finishes or the attempt cap is hit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/dispatch"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/internal/orchestrator"
)

func main() {
	var (
		input    = flag.String("input", dispatch.DefaultInputPath, "Job input arguments file")
		match    = flag.String("match", dispatch.DefaultProcessMatch, "Process name substring to start")
		attempts = flag.Int("attempts", dispatch.DefaultMaxAttempts, "Maximum status polls")
		interval = flag.Duration("interval", dispatch.DefaultInterval, "Delay before each status poll")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}
	if err := cfg.FinalizeOrchestrator(); err != nil {
		log.Fatal("orchestrator config: ", err)
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

	ctx, stop := signal.NotifyContext(infra.Lifecycle.Context(), os.Interrupt, syscall.SIGTERM)
	report, runErr := run(ctx, cfg, infra, dispatch.Options{
		ProcessMatch: *match,
		InputPath:    *input,
		MaxAttempts:  *attempts,
		Interval:     *interval,
		MonitorURL:   cfg.Orchestrator.MonitorURL(),
		Out:          os.Stdout,
	})
	stop()

	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		infra.Logger.Error("shutdown failed", "error", err)
	}

	if runErr != nil {
		log.Fatal("dispatch interrupted: ", runErr)
	}

	infra.Logger.Info("dispatch finished",
		"outcome", report.Outcome,
		"attempts", report.Attempts,
		"artifact", report.Artifact,
	)
	if report.Artifact != "" {
		fmt.Printf("Output archived to %s\n", report.Artifact)
	}
}

func run(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure, opts dispatch.Options) (*dispatch.Report, error) {
	client := orchestrator.New(&cfg.Orchestrator, infra.Logger)
	driver := dispatch.New(client, infra.Events, infra.Storage, opts, infra.Logger)
	return driver.Run(ctx)
}
