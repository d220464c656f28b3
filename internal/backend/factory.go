package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/store"
	"tally/internal/store/memory"
	"tally/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// sqliteComposite serves snapshots from SQLite and taxonomy suggestions
// from the seed-file store; the suggestion lists are static data that
// never belonged in the database.
type sqliteComposite struct {
	*sqlite.Store
	store.TaxonomyReader
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	db, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	taxonomy := memory.NewFromFiles(dataDir(config))

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Backend: &sqliteComposite{Store: db, TaxonomyReader: taxonomy},
		Cleanup: db.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	dir := dataDir(config)
	s := memory.NewFromFiles(dir)

	f.logger.Info("Initialized memory backend", "data_directory", dir)

	return &Result{
		Backend: s,
		Cleanup: func() error { return nil },
	}, nil
}

func dataDir(config Config) string {
	if config.DataDirectory != "" {
		return config.DataDirectory
	}
	return "data"
}
