package backend

import (
	"context"
	"fmt"

	"budgetcare/internal/core"
	"budgetcare/internal/log"
	"budgetcare/internal/memory"
	"budgetcare/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, storage.WithLogger(f.logger))
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to open SQLite database",
			"db_path", config.SQLiteDBPath,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seeded := 0
	if config.Seed {
		seeded, err = repo.SeedIfEmpty(ctx, memory.SeedReservations())
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("seed reservations: %w", err)
		}
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", seeded)

	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
		Ready:      repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var seed []core.Reservation
	if config.Seed {
		seed = memory.SeedReservations()
	}
	store := memory.New(seed...)

	f.logger.InfoContext(ctx, "Initialized memory backend", "seeded", config.Seed)

	return &BackendResult{
		Repository: store,
		Cleanup:    func() error { return nil },
	}, nil
}
