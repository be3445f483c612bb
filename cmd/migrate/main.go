// Command migrate applies the workflow_runs schema to the runs database.
//
//	migrate up | down | steps N | version | force N
//
// The connection comes from -dsn, then TRIAGE_DB_DSN, then the database
// section of the triage config.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "TRIAGE_DB_DSN"

func main() {
	dsn := flag.String("dsn", "", "Database URL (postgres://...)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-dsn url] up|down|steps N|version|force N")
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd, err := parseCommand(flag.Args())
	if err != nil {
		flag.Usage()
		os.Exit(2)
	}

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatal(err)
	}

	logger := infrastructure.NewLogger(slog.LevelInfo).With("system", "migrate")

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer m.Close()

	if err := cmd.run(m, logger); err != nil {
		log.Fatal(err)
	}
}

// command is one parsed migrate invocation.
type command struct {
	name string
	n    int
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}

	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "down", "version":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "steps", "force":
		if len(args) != 2 {
			return command{}, fmt.Errorf("%s requires a number", cmd.name)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("%s: %w", cmd.name, err)
		}
		if cmd.name == "steps" && n == 0 {
			return command{}, errors.New("steps must be non-zero")
		}
		cmd.n = n
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func (c command) run(m *migrate.Migrate, logger *slog.Logger) error {
	var err error
	switch c.name {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(c.n)
	case "force":
		err = m.Force(c.n)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("version: %w", verr)
		}
		logger.Info("schema version", "version", v, "dirty", dirty)
		return nil
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already current", "command", c.name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	logger.Info("migration applied", "command", c.name, "n", c.n)
	return nil
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("config load failed: %w", err)
	}
	return cfg.Database.URL(), nil
}
