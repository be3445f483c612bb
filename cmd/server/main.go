package main

import (
	"log"
	"os"
	"syscall"

	"github.com/JaimeStill/triage/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatal("server init failed: ", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatal("server start failed: ", err)
	}

	srv.infra.Lifecycle.WaitForSignal(os.Interrupt, syscall.SIGTERM)

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		log.Fatal("shutdown failed: ", err)
	}

	srv.infra.Logger.Info("triage stopped")
}
