package app

import (
	"context"
	"testing"
	"time"

	"github.com/dokzlo13/scriptd/internal/config"
	"github.com/dokzlo13/scriptd/internal/db"
	"github.com/dokzlo13/scriptd/internal/eventbus"
	"github.com/dokzlo13/scriptd/internal/journal"
)

func startJournalService(t *testing.T, cfg *config.Config) (*JournalService, *eventbus.Bus, *journal.Journal, context.CancelFunc) {
	t.Helper()

	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	bus := eventbus.NewWithConfig(1, 16)
	j := journal.New(database.DB)
	s := NewJournalService(cfg, bus, j)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	return s, bus, j, cancel
}

func TestJournalService_RecordsBusEvents(t *testing.T) {
	cfg := &config.Config{}
	cfg.Journal.CleanupInterval = config.Duration(time.Hour)
	cfg.Journal.RetentionDays = 30

	_, bus, j, cancel := startJournalService(t, cfg)
	defer cancel()

	bus.Publish(eventbus.Event{
		Type: eventbus.EventTypeResourceLoaded,
		Data: map[string]interface{}{
			"url":      "https://example.com/a.lua",
			"batch_id": "batch-1",
		},
	})
	bus.Close(context.Background())

	entries, err := j.GetByType(journal.EventResourceLoaded, 10)
	if err != nil {
		t.Fatalf("query journal: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	if entries[0].URL != "https://example.com/a.lua" {
		t.Errorf("unexpected url: %q", entries[0].URL)
	}
	if entries[0].BatchID != "batch-1" {
		t.Errorf("unexpected batch id: %q", entries[0].BatchID)
	}
}

func TestJournalService_ZeroCleanupInterval(t *testing.T) {
	// An unset cleanup interval must not crash the cleanup goroutine.
	cfg := &config.Config{}

	_, bus, _, cancel := startJournalService(t, cfg)

	time.Sleep(20 * time.Millisecond)
	cancel()
	bus.Close(context.Background())
}
