package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"core-banking-ledger/config"
	httpHandler "core-banking-ledger/internal/adapter/http/handler"
	pgStorage "core-banking-ledger/internal/adapter/storage/postgres"
	redisStorage "core-banking-ledger/internal/adapter/storage/redis"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/internal/service"
	"core-banking-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Core Banking Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Apply schema migrations
	if err := pgStorage.Migrate(cfg.Database.DSN(), log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	benefRepo := pgStorage.NewBeneficiaryRepo(pool)
	transactor := pgStorage.NewTransactor(pool, cfg.Ledger.LockWait)

	// Initialize Redis stores
	authCodes := redisStorage.NewAuthCodeStore(rdb, cfg.Ledger.AuthCodeTTL)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	defaultLimit, err := cfg.Ledger.DailyTransferLimitAmount()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid daily transfer limit")
	}
	limits := service.NewRollingLimitPolicy(userRepo, ledgerRepo, defaultLimit, log)

	// Initialize business services
	accountSvc := service.NewAccountService(userRepo, accountRepo, tokenSvc, log)
	movementSvc := service.NewMovementService(
		accountRepo,
		ledgerRepo,
		benefRepo,
		userRepo,
		limits,
		authCodes,
		transactor,
		log,
	)
	benefSvc := service.NewBeneficiaryService(benefRepo, log)
	historySvc := service.NewHistoryService(accountRepo, ledgerRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		MovementSvc:    movementSvc,
		BeneficiarySvc: benefSvc,
		HistorySvc:     historySvc,
		AuthCodes:      authCodes,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		DemoAuthCodes:  cfg.Ledger.DemoCodeDelivery,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
