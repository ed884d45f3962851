package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"clinsynth/internal/config"
	"clinsynth/internal/logger"
)

const usage = "Usage: migrate [up|down|steps N|version|force V]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	zl, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	switch cmd := args[0]; cmd {
	case "up":
		if err := m.Up(); ignoreNoChange(err) != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		zl.Info("migrations applied")

	case "down":
		if err := m.Down(); ignoreNoChange(err) != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		zl.Info("migrations reverted")

	case "steps", "force":
		if len(args) < 2 {
			return fmt.Errorf("%s requires a number argument", cmd)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid %s argument: %w", cmd, err)
		}
		if cmd == "force" {
			if err := m.Force(n); err != nil {
				return fmt.Errorf("migration force failed: %w", err)
			}
			zl.Info("migration version forced", zap.Int("version", n))
			return nil
		}
		if err := m.Steps(n); ignoreNoChange(err) != nil {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		zl.Info("migration steps applied", zap.Int("steps", n))

	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to get version: %w", err)
		}
		zl.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		fmt.Printf("unknown command: %s\n%s\n", cmd, usage)
		os.Exit(1)
	}
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
