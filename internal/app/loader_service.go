package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/scriptd/internal/config"
	"github.com/dokzlo13/scriptd/internal/eventbus"
	"github.com/dokzlo13/scriptd/internal/fetch"
	"github.com/dokzlo13/scriptd/internal/loader"
	"github.com/dokzlo13/scriptd/internal/luart"
	"github.com/dokzlo13/scriptd/internal/manifest"
)

// LoaderService wires the script loader to its collaborators: the fetch
// sources, the Lua runtime (install + verification) and the event bus.
type LoaderService struct {
	cfg      *config.Config
	bus      *eventbus.Bus
	registry *loader.Registry
	loader   *loader.Loader
}

// NewLoaderService creates a new LoaderService.
func NewLoaderService(cfg *config.Config, bus *eventbus.Bus, runtime *luart.Runtime) *LoaderService {
	registry := loader.NewRegistry()

	source := fetch.NewResolver(
		fetch.NewHTTPSource(cfg.Fetch.Timeout.Duration()),
		fetch.NewFileSource(cfg.Fetch.ScriptDir),
	)
	fetcher := luart.NewScriptFetcher(source, runtime)

	ld := loader.New(registry, fetcher, runtime.GlobalExists)
	ld.SetHooks(loader.Hooks{
		OnLoading: func(url string) {
			bus.Publish(eventbus.Event{
				Type: eventbus.EventTypeResourceLoading,
				Data: map[string]interface{}{"url": url},
			})
		},
		OnLoaded: func(url string) {
			bus.Publish(eventbus.Event{
				Type: eventbus.EventTypeResourceLoaded,
				Data: map[string]interface{}{"url": url},
			})
		},
		OnFailed: func(url string, err error) {
			bus.Publish(eventbus.Event{
				Type: eventbus.EventTypeResourceFailed,
				Data: map[string]interface{}{"url": url, "error": err.Error()},
			})
		},
	})

	return &LoaderService{
		cfg:      cfg,
		bus:      bus,
		registry: registry,
		loader:   ld,
	}
}

// Registry exposes the load-state registry for read-only inspection.
func (s *LoaderService) Registry() *loader.Registry {
	return s.registry
}

// AddResources loads a single resource or a batch on behalf of a caller.
func (s *LoaderService) AddResources(ctx context.Context, res loader.Resources) error {
	return s.loader.AddResources(ctx, res)
}

// Start reads the startup manifest and runs its batches in the background.
// A missing or invalid manifest is fatal; individual batch failures are not.
func (s *LoaderService) Start(ctx context.Context, onFatalError func(error)) {
	go func() {
		m, err := manifest.Load(s.cfg.Manifest)
		if err != nil {
			onFatalError(err)
			return
		}
		s.RunManifest(ctx, m)
	}()
}

// RunManifest runs every batch in the manifest, in order. Batches are
// independent of each other: a failed batch does not stop the rest. The
// first batch failure (if any) is returned.
func (s *LoaderService) RunManifest(ctx context.Context, m *manifest.Manifest) error {
	var firstErr error

	for _, b := range m.Batches {
		batchID := uuid.NewString()
		log.Info().
			Str("batch", b.Name).
			Str("batch_id", batchID).
			Int("resources", len(b.Resources)).
			Bool("strict", b.StrictOrder).
			Msg("Running manifest batch")

		if err := s.runBatch(ctx, b, batchID); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (s *LoaderService) runBatch(ctx context.Context, b manifest.Batch, batchID string) error {
	reqs := make([]loader.Request, 0, len(b.Resources))
	for _, r := range b.Resources {
		reqs = append(reqs, loader.Request{URL: r.URL, Verify: r.Verify})
	}

	return s.loader.RunBatch(ctx, loader.Batch{
		Requests:    reqs,
		StrictOrder: b.StrictOrder,
		OnSuccess: func() {
			s.bus.Publish(eventbus.Event{
				Type: eventbus.EventTypeBatchCompleted,
				Data: map[string]interface{}{"batch": b.Name, "batch_id": batchID},
			})
		},
		OnError: func(err error) {
			s.bus.Publish(eventbus.Event{
				Type: eventbus.EventTypeBatchFailed,
				Data: map[string]interface{}{"batch": b.Name, "batch_id": batchID, "error": err.Error()},
			})
		},
	})
}
