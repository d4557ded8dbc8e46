// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billing-service/config"
	"billing-service/internal/cache"
	"billing-service/internal/handler"
	"billing-service/internal/provider/mpesa"
	"billing-service/internal/repository"
	"billing-service/internal/router"
	"billing-service/internal/simulator"
	"billing-service/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting billing service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Env),
		zap.String("mpesa_environment", cfg.Mpesa.Environment),
		zap.Bool("demo_mode", cfg.Mpesa.DemoMode),
		zap.String("port", cfg.Server.Port))

	// Connect to database
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.ConnString())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("connected to database",
		zap.String("database", cfg.Database.DBName))

	// Token cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	tokenCache := cache.NewTokenCache(rdb, logger)

	// Initialize repositories
	txRepo := repository.NewTransactionRepository(dbPool)
	userRepo := repository.NewUserRepository(dbPool)

	// Initialize gateway client
	mpesaClient := mpesa.NewClient(cfg.Mpesa, tokenCache, logger)

	// Initialize usecases
	callbackUC := usecase.NewCallbackUsecase(txRepo, userRepo, logger)

	var completer usecase.Completer
	var sim *simulator.Simulator
	if cfg.Mpesa.DemoMode {
		sim = simulator.New(callbackUC, cfg.Mpesa.DemoCallbackDelay, logger)
		completer = sim
		logger.Warn("demo mode enabled, gateway calls are simulated")
	}

	paymentUC := usecase.NewPaymentUsecase(txRepo, mpesaClient, completer, logger)

	// Initialize handlers
	paymentHandler := handler.NewPaymentHandler(paymentUC, cfg.Server.Env, logger)
	callbackHandler := handler.NewCallbackHandler(callbackUC, logger)

	// Setup routes
	r := router.SetupRoutes(paymentHandler, callbackHandler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if sim != nil {
		sim.Shutdown()
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
