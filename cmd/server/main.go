package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/minicrm/internal/ai"
	"github.com/ignite/minicrm/internal/api"
	"github.com/ignite/minicrm/internal/auth"
	"github.com/ignite/minicrm/internal/config"
	"github.com/ignite/minicrm/internal/ingest"
	"github.com/ignite/minicrm/internal/pkg/logger"
	"github.com/ignite/minicrm/internal/queue"
	"github.com/ignite/minicrm/internal/repository/postgres"
	"github.com/ignite/minicrm/internal/service/campaign"
	"github.com/ignite/minicrm/internal/service/segment"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	q, err := queue.Open(cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer q.Close()

	customers := postgres.NewCustomerRepo(db)
	orders := postgres.NewOrderRepo(db)
	segments := segment.NewService(postgres.NewSegmentRepo(db), customers)
	campaigns := campaign.NewService(postgres.NewCampaignRepo(db), postgres.NewSegmentRepo(db), customers)
	processor := ingest.NewProcessor(customers, orders, cfg.Ingest.StoreTimeout())
	aiClient := ai.NewClient(cfg.AI)

	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		frontendURL := "http://localhost:5173"
		if len(cfg.Server.AllowedOrigins) > 0 {
			frontendURL = cfg.Server.AllowedOrigins[0]
		}
		authManager = auth.NewManager(cfg.Auth, baseURL, frontendURL)
		authManager.StartSessionCleanup()
		logger.Info("google auth enabled")
	}

	server := api.NewServer(cfg.Server, api.Deps{
		Queue:     q,
		Processor: processor,
		Customers: customers,
		Orders:    orders,
		Segments:  segments,
		Campaigns: campaigns,
		AI:        aiClient,
		Auth:      authManager,
		DB:        db,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	logger.Info("api server starting", "addr", addr, "ai_enabled", aiClient.Enabled())

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
