// Package app wires stores, the model gateway and services from config.
// Both the HTTP server and the operator CLI start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"pfms/internal/repository"
	"pfms/internal/repository/memory"
	"pfms/internal/service"
	"pfms/pkg/config"
	"pfms/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	_ service.TransactionStore = (*repository.TransactionRepository)(nil)
	_ service.GoalStore        = (*repository.GoalRepository)(nil)
	_ service.OverrideStore    = (*repository.CategoryOverrideRepository)(nil)
	_ service.UserStore        = (*repository.UserRepository)(nil)
)

type Stores struct {
	Transactions service.TransactionStore
	Goals        service.GoalStore
	Overrides    service.OverrideStore
	Users        service.UserStore
}

type App struct {
	DB     *pgxpool.Pool // nil with the memory driver
	Stores Stores

	Chat         *service.ChatService
	Goals        *service.GoalService
	Transactions *service.TransactionService
	Ingest       *service.IngestService
	Gmail        *service.GmailService
	Dashboard    *service.DashboardService

	closers []func()
	logger  *zap.Logger
}

// New opens the configured store and builds every service. Postgres
// schemas are migrated on start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	if err := a.openStores(ctx, cfg, logger); err != nil {
		return nil, err
	}

	gateway, err := a.newGateway(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Goals = service.NewGoalService(a.Stores.Goals, cfg.Chat.GoalLimit, logger)
	a.Transactions = service.NewTransactionService(a.Stores.Transactions, a.Stores.Overrides, cfg.Chat.TransactionLimit, logger)
	a.Ingest = service.NewIngestService(a.Transactions, a.Stores.Transactions, logger)
	a.Gmail = service.NewGmailService(&cfg.Google, a.Stores.Users, a.Transactions, a.Stores.Transactions, logger)
	a.Dashboard = service.NewDashboardService(a.Stores.Transactions, a.Stores.Goals, a.Stores.Users, logger)

	dispatcher := service.NewActionDispatcher(a.Stores.Transactions, a.Goals, logger)
	a.Chat = service.NewChatService(
		a.Stores.Transactions,
		a.Stores.Goals,
		gateway,
		service.NewContextBuilder(time.Now),
		dispatcher,
		cfg.Chat.TransactionLimit,
		cfg.Chat.GoalLimit,
		logger,
	)
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		store := memory.NewStore()
		a.Stores = Stores{
			Transactions: store.Transactions(),
			Goals:        store.Goals(),
			Overrides:    store.Overrides(),
			Users:        store.Users(),
		}
		return nil

	case config.StoreDriverPostgres:
		db, err := postgres.NewPool(ctx, &cfg.Database, logger)
		if err != nil {
			return err
		}
		if err := repository.Migrate(ctx, db, logger); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		a.Stores = Stores{
			Transactions: repository.NewTransactionRepository(db, logger),
			Goals:        repository.NewGoalRepository(db, logger),
			Overrides:    repository.NewCategoryOverrideRepository(db, logger),
			Users:        repository.NewUserRepository(db, logger),
		}
		return nil
	}
	return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *App) newGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.ModelGateway, error) {
	var next service.ModelGateway
	switch cfg.LLM.Provider {
	case config.ProviderGigaChat:
		giga, err := service.NewGigaChatGateway(ctx, &cfg.GigaChat, cfg.LLM.Temperature, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GigaChat: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := giga.Close(); err != nil {
				logger.Warn("Failed to close GigaChat client", zap.Error(err))
			}
		})
		next = giga
	default:
		next = service.NewOpenRouterGateway(&cfg.LLM, logger)
	}

	logger.Info("Model gateway ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Duration("timeout", cfg.LLM.Timeout),
		zap.Int("max_retries", cfg.LLM.MaxRetries),
	)
	return service.NewResilientGateway(next, &cfg.LLM, logger), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
