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
	"github.com/codeternalx123/agropulseAI/internal/api/middleware"
	"github.com/codeternalx123/agropulseAI/internal/api/server"
	"github.com/codeternalx123/agropulseAI/internal/arbitration"
	"github.com/codeternalx123/agropulseAI/internal/config"
	"github.com/codeternalx123/agropulseAI/internal/engine"
	"github.com/codeternalx123/agropulseAI/internal/features"
	"github.com/codeternalx123/agropulseAI/internal/ledger"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/market"
	"github.com/codeternalx123/agropulseAI/internal/messaging"
	"github.com/codeternalx123/agropulseAI/internal/providers/jetstream"
	"github.com/codeternalx123/agropulseAI/internal/providers/mpesa"
	"github.com/codeternalx123/agropulseAI/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting AgroPulse marketplace API")

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
	fs := adapter.NewFileSystem()
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

	// Load feature denylist
	access := features.NewAllowAll()
	if cfg.DenylistPath != "" {
		access, err = features.LoadDenylist(cfg.DenylistPath, fs, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to load feature denylist",
				zap.Error(err),
				zap.String("path", cfg.DenylistPath))
		}
		logger.InfoCtx(ctx, "Loaded feature denylist", zap.String("path", cfg.DenylistPath))
	} else {
		logger.WarnCtx(ctx, "Feature denylist path not configured, all users will be allowed")
	}

	// Payment gateway
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

	// Domain services
	services := server.Services{
		Ledger: ledger.New(ledger.Config{
			MinVerificationScore: cfg.Market.MinVerificationScore,
			ListingTTL:           cfg.Market.ListingTTL,
		}, dataStore, clock, publisher, access),
		Engine: engine.New(engine.Config{
			PlatformFeeRate:  cfg.Market.PlatformFeeRate,
			AcceptanceWindow: cfg.Market.AcceptanceWindow,
		}, dataStore, clock, paymentGateway, publisher, access),
		Arbitration: arbitration.New(dataStore, clock, paymentGateway, publisher),
		Market:      market.New(dataStore),
	}

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	// Create and start server
	srv := server.New(serverConfig, services)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
