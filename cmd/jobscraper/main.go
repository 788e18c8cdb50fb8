// Package main wires together the scraper service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/weaverlabs/jobscraper/internal/api"
	"github.com/weaverlabs/jobscraper/internal/browser"
	"github.com/weaverlabs/jobscraper/internal/clock/system"
	"github.com/weaverlabs/jobscraper/internal/config"
	"github.com/weaverlabs/jobscraper/internal/fetcher/static"
	"github.com/weaverlabs/jobscraper/internal/id/uuid"
	"github.com/weaverlabs/jobscraper/internal/logging"
	"github.com/weaverlabs/jobscraper/internal/metrics"
	"github.com/weaverlabs/jobscraper/internal/scraper"
	memorystorage "github.com/weaverlabs/jobscraper/internal/storage/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	clock := system.New()
	idGen := uuid.New()
	jobStore := memorystorage.NewJobStore()

	retry := scraper.RetryPolicy{
		MaxAttempts: cfg.Scraper.MaxRetries,
		BaseDelay:   cfg.RetryBase(),
		MaxDelay:    cfg.RetryMax(),
	}

	var sessions scraper.SessionFactory
	switch cfg.Browser.Mode {
	case "static":
		sessions = static.NewManager(static.Config{
			UserAgent: cfg.Browser.UserAgent,
			Timeout:   cfg.NavTimeout(),
			Retry:     retry,
		}, logger)
	default:
		sessions = browser.NewManager(browser.Config{
			Headless:       cfg.Browser.Headless,
			UserAgent:      cfg.Browser.UserAgent,
			WindowWidth:    cfg.Browser.WindowWidth,
			WindowHeight:   cfg.Browser.WindowHeight,
			AttemptTimeout: cfg.NavTimeout(),
			SettleDelay:    cfg.SettleDelay(),
			Retry:          retry,
		}, logger)
	}

	discoverer := scraper.NewDiscoverer(nil, cfg.Scraper.MaxLoadMoreRounds, logger)
	extractor := scraper.NewExtractor(nil, clock, logger)
	orchestrator := scraper.NewOrchestrator(
		sessions,
		jobStore,
		discoverer,
		extractor,
		clock,
		scraper.Config{
			FetchDelay:  cfg.FetchDelay(),
			MaxListings: cfg.Scraper.MaxListings,
			RunTimeout:  cfg.RunTimeout(),
		},
		logger,
	)

	server := api.NewServer(jobStore, orchestrator, idGen, clock, cfg.Server.AllowedOrigin, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
