package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/scriptd/internal/config"
	"github.com/dokzlo13/scriptd/internal/journal"
	"github.com/dokzlo13/scriptd/internal/loader"
)

// statusRecentLimit caps the journal tail in /status responses.
const statusRecentLimit = 50

// StatusService provides HTTP health check and status endpoints.
type StatusService struct {
	cfg      *config.Config
	registry *loader.Registry
	journal  *journal.Journal
	server   *http.Server
}

// NewStatusService creates a new StatusService.
func NewStatusService(cfg *config.Config, registry *loader.Registry, j *journal.Journal) *StatusService {
	return &StatusService{
		cfg:      cfg,
		registry: registry,
		journal:  j,
	}
}

// Start begins the status server if enabled.
func (s *StatusService) Start(ctx context.Context) {
	if !s.cfg.Status.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *StatusService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Status.Host, s.cfg.Status.Port)

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Ready check endpoint
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Load-state and journal snapshot
	mux.HandleFunc("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Info().Str("addr", addr).Msg("Starting status server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Status server error")
	}
}

func (s *StatusService) handleStatus(w http.ResponseWriter, r *http.Request) {
	resources := make(map[string]string)
	for url, st := range s.registry.Snapshot() {
		resources[url] = st.String()
	}

	recent, err := s.journal.Recent(statusRecentLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read journal for status")
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"resources": resources,
		"recent":    recent,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to encode status response")
	}
}
