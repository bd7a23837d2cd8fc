// Package infrastructure assembles what every domain system shares: the
// lifecycle coordinator, the logger, the record database, the blob archive,
// and the local settings store.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/beacon/internal/config"
	"github.com/JaimeStill/beacon/internal/settings"
	"github.com/JaimeStill/beacon/pkg/database"
	"github.com/JaimeStill/beacon/pkg/lifecycle"
	"github.com/JaimeStill/beacon/pkg/storage"
)

type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Settings  settings.System

	closeLog func() error
}

// starter is the hook each shared system exposes to the coordinator.
type starter interface {
	Start(lc *lifecycle.Coordinator) error
}

// New builds every system without starting any of them. A failure part way
// through closes the log file it already opened.
func New(cfg *config.Config) (infra *Infrastructure, err error) {
	logger, closeLog, err := NewLogger(os.Stderr, &cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	defer func() {
		if err != nil {
			closeLog()
		}
	}()

	infra = &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		closeLog:  closeLog,
	}

	if infra.Database, err = database.New(&cfg.Database, logger); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if infra.Storage, err = storage.New(&cfg.Storage, logger); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if infra.Settings, err = settings.Open(&cfg.Settings, logger); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return infra, nil
}

// Start hands each system to the lifecycle coordinator in dependency order.
func (i *Infrastructure) Start() error {
	systems := []struct {
		name string
		sys  starter
	}{
		{"database", i.Database},
		{"storage", i.Storage},
		{"settings", i.Settings},
	}
	for _, s := range systems {
		if err := s.sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("start %s: %w", s.name, err)
		}
	}

	if i.closeLog == nil {
		return nil
	}
	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.closeLog(); err != nil {
			i.Logger.Error("close log file", "error", err)
		}
	})
	return nil
}

// Scoped shares every system with i but tags log records with the module
// name. The copy never owns the log file.
func (i *Infrastructure) Scoped(module string) *Infrastructure {
	scoped := *i
	scoped.Logger = i.Logger.With("module", module)
	scoped.closeLog = nil
	return &scoped
}
