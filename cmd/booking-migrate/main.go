package main // schema and demo-data tool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
)

func main() {
	var (
		envFile string
		seed    bool
		timeout time.Duration
	)
	flags := pflag.NewFlagSet("booking-migrate", pflag.ExitOnError)
	flags.StringVar(&envFile, "env-file", "", "env file to load before reading DB_* variables")
	flags.BoolVar(&seed, "seed", false, "insert the demo catalog when the movies table is empty")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: booking-migrate [flags]\n\nCreates the booking tables and optionally seeds a demo catalog.\n\nFlags:\n")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("app", "booking-migrate")
	if err := run(envFile, seed, timeout, logger); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(envFile string, seed bool, timeout time.Duration, logger *slog.Logger) error {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("schema applied", "tables", len(database.Schema))
	if !seed {
		return nil
	}
	if err := database.Seed(ctx, db); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info("demo catalog ready")
	return nil
}
