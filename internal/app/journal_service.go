package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/scriptd/internal/config"
	"github.com/dokzlo13/scriptd/internal/eventbus"
	"github.com/dokzlo13/scriptd/internal/journal"
)

// JournalService persists load events from the bus into the journal and
// runs periodic retention cleanup.
type JournalService struct {
	cfg     *config.Config
	bus     *eventbus.Bus
	journal *journal.Journal
}

// NewJournalService creates a new JournalService.
func NewJournalService(cfg *config.Config, bus *eventbus.Bus, j *journal.Journal) *JournalService {
	return &JournalService{
		cfg:     cfg,
		bus:     bus,
		journal: j,
	}
}

// Start subscribes to all load events and begins the cleanup loop.
func (s *JournalService) Start(ctx context.Context) {
	for _, et := range []eventbus.EventType{
		eventbus.EventTypeResourceLoading,
		eventbus.EventTypeResourceLoaded,
		eventbus.EventTypeResourceFailed,
		eventbus.EventTypeBatchCompleted,
		eventbus.EventTypeBatchFailed,
	} {
		s.bus.Subscribe(et, s.record)
	}

	go s.cleanupLoop(ctx)
}

// record maps a bus event onto a journal row. Event and journal types
// share names on purpose.
func (s *JournalService) record(e eventbus.Event) {
	url, _ := e.Data["url"].(string)
	batchID, _ := e.Data["batch_id"].(string)
	errText, _ := e.Data["error"].(string)

	if err := s.journal.Append(journal.EventType(e.Type), url, batchID, errText, e.Data); err != nil {
		log.Error().Err(err).Str("event_type", string(e.Type)).Msg("Failed to journal load event")
	}
}

func (s *JournalService) cleanupLoop(ctx context.Context) {
	interval := s.cfg.Journal.CleanupInterval.Duration()
	if interval <= 0 {
		// NewTicker panics on non-positive intervals
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.journal.Cleanup(s.cfg.Journal.RetentionDays)
			if err != nil {
				log.Error().Err(err).Msg("Journal cleanup failed")
				continue
			}
			if removed > 0 {
				log.Info().Int64("removed", removed).Msg("Journal cleanup done")
			}
		}
	}
}
