package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnaubm/noise-trader/internal/broker"
	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/logger"
	"github.com/arnaubm/noise-trader/internal/metrics"
	"github.com/arnaubm/noise-trader/internal/scheduler"
	"github.com/arnaubm/noise-trader/internal/storage"
	"github.com/arnaubm/noise-trader/internal/strategy"
	"github.com/arnaubm/noise-trader/internal/telegram"
	"github.com/arnaubm/noise-trader/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "data/noise-trader.db", "path to SQLite database")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Init logger
	log := logger.New(cfg.Logging.Level)

	mode := "LIVE"
	if cfg.IsSandbox() {
		mode = "SANDBOX"
	}
	log.Info("starting noise-trader", "mode", mode, "ticker", cfg.Trading.Ticker)

	// Init database
	db, err := storage.NewDatabase(*dbPath)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	// Context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init broker client
	bc, err := broker.NewBrokerClient(ctx, cfg, log)
	if err != nil {
		log.Error("broker client init failed", "error", err)
		os.Exit(1)
	}
	log.Info("broker connected", "account_id", bc.AccountID())

	// Init services
	gauges := metrics.NewManager()
	notifier := telegram.NewNotifier(cfg, log)

	noise, err := strategy.NewNoise(cfg.Strategy, bc, gauges, notifier, log)
	if err != nil {
		log.Error("strategy init failed", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(bc, noise, repo, notifier, cfg, log)
	webServer := web.NewServer(repo, gauges, cfg, log)

	// Start scheduler in goroutine
	go sched.Run(ctx)

	// Start web server in goroutine
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus(fmt.Sprintf("🤖 Noise-Trader started (%s)", mode))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	// Graceful shutdown
	cancel() // stop scheduler

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	if err := bc.Stop(); err != nil {
		log.Error("broker client stop error", "error", err)
	}

	notifier.NotifyStatus("🛑 Noise-Trader stopped")
	log.Info("noise-trader stopped")
}
