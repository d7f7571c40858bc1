package main // interactive booking client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/cache"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
	"github.com/iliyamo/movie-ticket-booking/internal/shell"
	"github.com/iliyamo/movie-ticket-booking/internal/ticket"
)

func main() {
	cfg := config.Load()

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Error("startup failed", "error", err)
		fmt.Fprintln(os.Stderr, "cannot connect to the database:", err)
		closeLog()
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected", "env", cfg.Env, "db_host", cfg.DBHost, "db_name", cfg.DBName)

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	} else {
		logger.Info("redis unavailable; catalog cache disabled")
	}
	catalog := cache.NewCatalog(config.LoadCacheConfig(), rdb, logger)

	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL, logger)
	}

	bookings := service.NewBookingService(db, events, logger)
	selection := service.NewSelectionService(db, catalog, logger)
	tickets := ticket.NewIssuer(cfg.TicketSecret, time.Duration(cfg.TicketTTLHours)*time.Hour)

	sh := shell.New(os.Stdin, os.Stdout, bookings, selection, tickets, logger)
	if err := sh.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("session ended with error", "error", err)
		fmt.Fprintln(os.Stderr, err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger writes slog text records to cfg.LogFile so the terminal only
// shows the menu.  When the file cannot be opened it logs to stderr.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				w = f
				closeFn = func() { _ = f.Close() }
			}
		}
	}
	logger := slog.New(slog.NewTextHandler(w, opts)).With("app", "booking")
	slog.SetDefault(logger)
	return logger, closeFn
}
