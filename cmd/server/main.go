package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/vaultpay/withdrawal-service/internal/application/services"
	"github.com/vaultpay/withdrawal-service/internal/config"
	"github.com/vaultpay/withdrawal-service/internal/domain/repositories"
	"github.com/vaultpay/withdrawal-service/internal/infrastructure/db/postgres"
	"github.com/vaultpay/withdrawal-service/internal/infrastructure/memory"
	rest "github.com/vaultpay/withdrawal-service/internal/interface/api/rest/chi"
	"github.com/vaultpay/withdrawal-service/pkg/limiter"
	"github.com/vaultpay/withdrawal-service/pkg/logger"
)

// Version indicates the current version of the application.
var Version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Server run context.
	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	// Load application configurations.
	cfg := config.MustLoad()

	// Create root logger tagged with server version.
	logger := logger.New(cfg).With(serverCtx, "version", Version)
	defer func() { _ = logger.Sync() }()

	var (
		recordRepo repositories.WithdrawalRepository
		index      repositories.IdempotencyIndex
		trm        services.Transactor
	)

	if cfg.DSN != "" {
		db, err := postgres.Connect(cfg, logger)
		if err != nil {
			return err
		}
		// Check connectivity and DSN correctness.
		if err = db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to the database: %w", err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				logger.Error(err)
			}
		}()

		recordRepo, err = postgres.NewWithdrawalRepository(db, trmsql.DefaultCtxGetter, logger)
		if err != nil {
			return fmt.Errorf("failed to create withdrawal repository: %w", err)
		}
		index, err = postgres.NewIdempotencyIndex(db, trmsql.DefaultCtxGetter, logger)
		if err != nil {
			return fmt.Errorf("failed to create idempotency index: %w", err)
		}
		trm = manager.Must(trmsql.NewDefaultFactory(db))
	} else {
		// Volatile reference backend: state lives for the process only.
		logger.Info("no DSN configured, running with the in-memory store")
		recordRepo = memory.NewWithdrawalRepository()
		index = memory.NewIdempotencyIndex()
		trm = services.NopTransactor{}
	}

	withdrawalService, err := services.NewWithdrawalService(recordRepo, index, trm, logger)
	if err != nil {
		return fmt.Errorf("failed to init withdrawal service: %w", err)
	}

	router := rest.InitChi(logger)

	createLimiter := limiter.NewDynamicRateLimiter(cfg.RateLimit.Interval, cfg.RateLimit.Burst)

	// Adjust the creation throttle on SIGHUP without a restart.
	go func() {
		reload := make(chan os.Signal, 1)
		signal.Notify(reload, syscall.SIGHUP)

		for range reload {
			rl := cfg.RateLimit
			if err := cleanenv.ReadEnv(&rl); err != nil {
				logger.Errorf("reload rate limit config: %s", err)
				continue
			}
			createLimiter.Update(rl.Interval, rl.Burst)
			logger.Infof("rate limit updated: interval=%s burst=%d", rl.Interval, rl.Burst)
		}
	}()

	rest.NewWithdrawalController(withdrawalService, rest.ChiServerOptions{
		BaseRouter:  router,
		Middlewares: []rest.MiddlewareFunc{rest.RateLimit(createLimiter)},
	})

	// Build HTTP server.
	hs := &http.Server{
		Addr:              cfg.HTTPServer.Address,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:       cfg.HTTPServer.IdleTimeout,
		Handler:           router,
	}

	// Graceful shutdown.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT,
			syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)

		<-sig

		logger.Infof("Shutting down server with %s timeout",
			cfg.HTTPServer.ShutdownTimeout)

		if err := hs.Shutdown(serverCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %s", err)
		}
		serverStopCtx()
	}()

	// Start the HTTP server with graceful shutdown.
	logger.Infof("server %v is running at %v", Version, cfg.HTTPServer.Address)
	if err = hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("run server failed: %w", err)
	}

	// Wait for server context to be stopped.
	select {
	case <-serverCtx.Done():
	case <-time.After(cfg.HTTPServer.ShutdownTimeout):
		return errors.New("graceful shutdown timed out.. forcing exit")
	}

	return nil
}
