package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/minicrm/internal/config"
	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/pkg/distlock"
	"github.com/ignite/minicrm/internal/pkg/logger"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/repository/postgres"
)

const lockTTL = 30 * time.Second

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutdown signal received")
		cancel()
	}()

	// The consumer restarts from scratch on fatal errors (lost redis or
	// database connections) up to a bounded number of times. Cursors are
	// process-local, so a restart re-reads from the configured start
	// position; the idempotent customer path absorbs replays.
	restarts := 0
	for {
		err := run(ctx, cfg)
		if err == nil || errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}

		restarts++
		if restarts > cfg.Ingest.MaxRestarts {
			logger.Error("consumer exceeded restart budget", "restarts", restarts-1, "error", err)
			os.Exit(1)
		}
		logger.Error("consumer failed, restarting",
			"restart", restarts, "max", cfg.Ingest.MaxRestarts,
			"delay", cfg.Ingest.RestartDelay().String(), "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Ingest.RestartDelay()):
		}
	}
}

// run builds a fresh consumer stack and blocks until ctx is cancelled
// or a fatal error occurs.
func run(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := queue.Open(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer q.Close()

	if err := q.Ping(ctx); err != nil {
		return err
	}

	// Cursor state is process-local, so two consumers would double-read
	// the streams. A redis lock keeps it to one instance.
	lock := distlock.NewRedisLock(q.Client(), "minicrm:ingest-consumer", lockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return errors.New("another consumer instance holds the ingest lock")
	}
	defer lock.Release(context.Background())

	go func() {
		ticker := time.NewTicker(lockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lock.Extend(ctx, lockTTL); err != nil {
					logger.Warn("failed to extend ingest lock", "error", err)
				}
			}
		}
	}()

	cursors, err := ingest.NewMemoryCursors(cfg.Ingest.StartFrom,
		queue.CustomerStream, queue.OrderStream)
	if err != nil {
		return err
	}

	processor := ingest.NewProcessor(
		postgres.NewCustomerRepo(db),
		postgres.NewOrderRepo(db),
		cfg.Ingest.StoreTimeout())

	consumer := ingest.NewConsumer(q, processor, cursors, ingest.Options{
		Block:        cfg.Ingest.Block(),
		BatchSize:    int64(cfg.Ingest.BatchSize),
		MaxAttempts:  cfg.Ingest.MaxAttempts,
		Backoff:      cfg.Ingest.Backoff(),
		StoreTimeout: cfg.Ingest.StoreTimeout(),
	})

	return consumer.Run(ctx)
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
