package main // booking event consumer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConsumerConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("app", "booking-consumer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := &queue.Consumer{URL: cfg.AMQPURL, LogDir: cfg.LogDir, Logger: logger}

	if cfg.HealthAddr != "" {
		e := handler.NewHealthServer(consumer)
		go func() {
			logger.Info("health endpoint listening", "addr", cfg.HealthAddr)
			if err := e.Start(cfg.HealthAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health endpoint stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("consuming", "queue", queue.QueueName, "log_dir", cfg.LogDir)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
