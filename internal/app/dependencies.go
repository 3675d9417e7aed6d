package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/prodhub/internal/health"
	"github.com/vladislavdragonenkov/prodhub/internal/storage/memory"
	"github.com/vladislavdragonenkov/prodhub/internal/storage/postgres"
)

// runtimeDependencies объединяет репозитории выбранного хранилища.
type runtimeDependencies struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	products   domain.ProductRepository
	categories domain.CategoryRepository
	events     domain.EventRepository
	ledger     domain.TransactionLedger
	outbox     domain.OutboxRepository

	// storageChecker регистрируется в /healthz; nil для memory.
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initRuntimeDependencies создаёт репозитории согласно cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		store := memory.NewStore()
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			users:      store.Users(),
			sessions:   store.Sessions(),
			products:   store.Products(),
			categories: store.Categories(),
			events:     store.Events(),
			ledger:     store.LedgerWithOutbox(),
			outbox:     store.Outbox(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires a dsn")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return &runtimeDependencies{
			users:      postgres.NewUserRepository(store),
			sessions:   postgres.NewSessionRepository(store),
			products:   postgres.NewProductRepository(store),
			categories: postgres.NewCategoryRepository(store),
			events:     postgres.NewEventRepository(store),
			ledger:     postgres.NewTransactionLedgerWithOutbox(store),
			outbox:     postgres.NewOutboxRepository(store),
			storageChecker: healthcheck.NewSimpleChecker("postgres", func() error {
				return store.Ping(context.Background())
			}),
			closeFn: store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
