package app

import (
	"context"

	"github.com/dokzlo13/scriptd/internal/config"
	"github.com/dokzlo13/scriptd/internal/db"
	"github.com/dokzlo13/scriptd/internal/eventbus"
	"github.com/dokzlo13/scriptd/internal/journal"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB      *db.DB
	Journal *journal.Journal
	Bus     *eventbus.Bus

	// High-level services
	Runtime       *RuntimeService
	Loader        *LoaderService
	JournalWriter *JournalService
	Status        *StatusService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize journal
	s.Journal = journal.New(database.DB)

	// Initialize event bus
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// Initialize Lua runtime service
	s.Runtime = NewRuntimeService(cfg)

	// Initialize loader service (publishes load events to the bus)
	s.Loader = NewLoaderService(cfg, s.Bus, s.Runtime.Runtime)

	// Initialize journal writer (persists bus events)
	s.JournalWriter = NewJournalService(cfg, s.Bus, s.Journal)

	// Initialize status server
	s.Status = NewStatusService(cfg, s.Loader.Registry(), s.Journal)

	return s, nil
}

// Start starts all services in the correct order.
// The onFatalError callback is called when a fatal error occurs
// (e.g., the startup manifest cannot be read).
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Journal subscriptions must be in place before the first load event.
	s.JournalWriter.Start(ctx)

	// Start the Lua worker, then begin loading the startup manifest.
	s.Runtime.Start(ctx)
	s.Loader.Start(ctx, onFatalError)

	s.Status.Start(ctx)

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		s.Bus.Close(ctx)
	}
	if s.Runtime != nil {
		s.Runtime.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
