package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/config"
	"github.com/codeternalx123/agropulseAI/internal/engine"
	"github.com/codeternalx123/agropulseAI/internal/features"
	"github.com/codeternalx123/agropulseAI/internal/ledger"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/messaging"
	"github.com/codeternalx123/agropulseAI/internal/providers/jetstream"
	"github.com/codeternalx123/agropulseAI/internal/providers/mpesa"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting auto-release sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	httpClient := adapter.NewHTTPClient(30 * time.Second)

	// Connect to JetStream; fall back to a no-op publisher when NATS is not configured
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		publisher = messaging.NewNopPublisher()
		logger.WarnCtx(ctx, "NATS URL not configured, events will not be published")
	}

	// Payment gateway for the settlements the sweeper triggers
	paymentGateway := mpesa.NewClient(mpesa.Config{
		BaseURL:            cfg.Gateway.BaseURL,
		ConsumerKey:        cfg.Gateway.ConsumerKey,
		ConsumerSecret:     cfg.Gateway.ConsumerSecret,
		ShortCode:          cfg.Gateway.ShortCode,
		InitiatorName:      cfg.Gateway.InitiatorName,
		SecurityCredential: cfg.Gateway.SecurityCredential,
		ResultURL:          cfg.Gateway.ResultURL,
		TimeoutURL:         cfg.Gateway.TimeoutURL,
	}, httpClient, jsonAdapter, clock)

	// The sweeper settles through the same engine the API uses; feature
	// gating does not apply to scheduler-triggered releases
	escrowEngine := engine.New(engine.Config{
		PlatformFeeRate:  cfg.Market.PlatformFeeRate,
		AcceptanceWindow: cfg.Market.AcceptanceWindow,
	}, dataStore, clock, paymentGateway, publisher, features.NewAllowAll())

	assetLedger := ledger.New(ledger.Config{
		MinVerificationScore: cfg.Market.MinVerificationScore,
		ListingTTL:           cfg.Market.ListingTTL,
	}, dataStore, clock, publisher, features.NewAllowAll())

	// Initialize auto-release sweeper
	sweeperConfig := &sweeper.AutoReleaseSweeperConfig{
		BatchSize:      cfg.AutoReleaseSweeper.BatchSize,
		WorkerPoolSize: cfg.AutoReleaseSweeper.Worker.WorkerPoolSize,
	}
	releaseSweeper := sweeper.NewAutoReleaseSweeper(sweeperConfig, dataStore, escrowEngine, assetLedger, clock)

	logger.InfoCtx(ctx, "Initialized auto-release sweeper (continuous mode)",
		zap.Int("batch_size", cfg.AutoReleaseSweeper.BatchSize),
		zap.Int("worker_pool_size", cfg.AutoReleaseSweeper.Worker.WorkerPoolSize),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := releaseSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := releaseSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
