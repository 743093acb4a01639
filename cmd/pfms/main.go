package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pfms/internal/api"
	"pfms/internal/api/handlers"
	"pfms/internal/app"
	"pfms/pkg/auth"
	"pfms/pkg/config"
	"pfms/pkg/logger"

	"go.uber.org/zap"
)

// @title PFMS API
// @version 1.0
// @description Personal finance assistant: chat over transactions and goals, CSV import, Gmail sync and dashboard.

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting PFMS service",
		zap.String("store", cfg.Store.Driver),
		zap.String("provider", cfg.LLM.Provider),
	)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	var jwtManager *auth.JWTManager
	if cfg.JWT.SecretKey != "" {
		jwtManager = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	} else {
		appLogger.Warn("JWT_SECRET_KEY is empty; API routes are unauthenticated")
	}

	var pinger handlers.Pinger
	if a.DB != nil {
		pinger = a.DB
	}

	server := api.SetupRouter(&cfg.Server, api.Handlers{
		Chat:         handlers.NewChatHandler(a.Chat, appLogger),
		Goals:        handlers.NewGoalHandler(a.Goals, appLogger),
		Transactions: handlers.NewTransactionHandler(a.Transactions, a.Ingest, appLogger),
		Gmail:        handlers.NewGmailHandler(a.Gmail, appLogger),
		Dashboard:    handlers.NewDashboardHandler(a.Dashboard, appLogger),
		Health:       handlers.NewHealthHandler(pinger, appLogger),
	}, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
