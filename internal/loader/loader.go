// Package loader coordinates exactly-once loading of remotely addressed
// scripts. A shared Registry deduplicates concurrent requests for the same
// URL, an optional verification path gates success on the script having
// registered its namespace, and batches run under strict or loose ordering.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Fetcher is the external fetch primitive: it retrieves and installs the
// resource at url, returning nil exactly when installation succeeded. The
// loader never invokes it more than once concurrently for one url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

// VerifyFunc reports whether the capability at a dotted path is currently
// reachable in the host namespace.
type VerifyFunc func(ctx context.Context, path string) (bool, error)

// Request asks for a single resource to be loaded.
type Request struct {
	URL string
	// Verify is an optional dotted path checked after a successful fetch.
	// Empty means network completion alone counts as success.
	Verify string
	// OnSuccess fires once for this request when it resolves successfully,
	// including when the resource was already loaded.
	OnSuccess func()
}

// Hooks receive per-resource lifecycle notifications. All fields are
// optional.
type Hooks struct {
	OnLoading func(url string)
	OnLoaded  func(url string)
	OnFailed  func(url string, err error)
}

// Loader performs deduplicated, verified, awaitable loads against a shared
// registry. It is safe for concurrent use.
type Loader struct {
	registry *Registry
	fetcher  Fetcher
	verify   VerifyFunc
	hooks    Hooks
}

// New creates a loader around the given registry, fetch primitive and
// verification predicate. verify may be nil if no request carries a
// verification path.
func New(registry *Registry, fetcher Fetcher, verify VerifyFunc) *Loader {
	return &Loader{
		registry: registry,
		fetcher:  fetcher,
		verify:   verify,
	}
}

// SetHooks installs lifecycle hooks. Must be called before the loader is
// shared between goroutines.
func (l *Loader) SetHooks(h Hooks) {
	l.hooks = h
}

// Load resolves a single request. Whether this caller triggers the fetch,
// arrives mid-flight, or arrives after completion, it returns exactly once
// with the outcome of the one underlying load. A failed load frees the URL
// for a later retry; a verification failure on an already-loaded resource
// does not (the script's side effects may be partially present, so we
// report the broken environment instead of re-executing).
func (l *Loader) Load(ctx context.Context, req Request) error {
	if req.URL == "" {
		return errors.New("empty resource url")
	}

	for {
		switch l.registry.StatusOf(req.URL) {
		case StatusLoaded:
			return l.resolveLoaded(ctx, req)

		case StatusLoading:
			done := make(chan error, 1)
			if err := l.registry.AddWaiter(req.URL, func(err error) { done <- err }); err != nil {
				// Completed between the status check and here; re-check.
				continue
			}
			return l.awaitResult(ctx, req, done)

		default:
			if err := l.registry.BeginLoading(req.URL); err != nil {
				// Another caller won the race to start; re-check.
				continue
			}
			return l.loadFresh(ctx, req)
		}
	}
}

// resolveLoaded handles a request for a resource that is already loaded:
// no network access, but the verification path (if any) is re-checked.
func (l *Loader) resolveLoaded(ctx context.Context, req Request) error {
	if req.Verify != "" {
		ok, err := l.runVerify(ctx, req.Verify)
		if err != nil {
			return fmt.Errorf("verifying %q for loaded resource %q: %w", req.Verify, req.URL, err)
		}
		if !ok {
			verr := &VerifyError{URL: req.URL, Path: req.Verify, Loaded: true}
			log.Warn().Str("url", req.URL).Str("verify", req.Verify).Msg("Loaded resource failed re-verification")
			return verr
		}
	}
	log.Debug().Str("url", req.URL).Msg("Resource already loaded")
	if req.OnSuccess != nil {
		req.OnSuccess()
	}
	return nil
}

// awaitResult blocks until the in-flight load this request attached to
// completes. Waiters do not re-verify; verification already ran for the
// original loader.
func (l *Loader) awaitResult(ctx context.Context, req Request, done <-chan error) error {
	log.Debug().Str("url", req.URL).Msg("Load already in flight, waiting")
	select {
	case <-ctx.Done():
		// The load itself keeps running; only this caller stops waiting.
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
		if req.OnSuccess != nil {
			req.OnSuccess()
		}
		return nil
	}
}

// loadFresh performs the one real fetch for a URL this process will ever
// run concurrently, then settles the registry and all waiters.
func (l *Loader) loadFresh(ctx context.Context, req Request) error {
	log.Info().Str("url", req.URL).Msg("Loading resource")
	if l.hooks.OnLoading != nil {
		l.hooks.OnLoading(req.URL)
	}

	if err := l.fetcher.Fetch(ctx, req.URL); err != nil {
		ferr := &FetchError{URL: req.URL, Err: err}
		l.fail(req.URL, ferr)
		return ferr
	}

	if req.Verify != "" {
		ok, err := l.runVerify(ctx, req.Verify)
		if err != nil {
			verr := fmt.Errorf("verifying %q for %q: %w", req.Verify, req.URL, err)
			l.fail(req.URL, verr)
			return verr
		}
		if !ok {
			verr := &VerifyError{URL: req.URL, Path: req.Verify}
			l.fail(req.URL, verr)
			return verr
		}
	}

	l.registry.CompleteLoading(req.URL, nil)
	log.Info().Str("url", req.URL).Msg("Resource loaded")
	if l.hooks.OnLoaded != nil {
		l.hooks.OnLoaded(req.URL)
	}
	if req.OnSuccess != nil {
		req.OnSuccess()
	}
	return nil
}

// fail settles a failed in-flight load: waiters are notified FIFO and the
// registry entry reverts to unloaded so the URL can be retried.
func (l *Loader) fail(url string, err error) {
	log.Error().Err(err).Str("url", url).Msg("Resource load failed")
	l.registry.CompleteLoading(url, err)
	if l.hooks.OnFailed != nil {
		l.hooks.OnFailed(url, err)
	}
}

func (l *Loader) runVerify(ctx context.Context, path string) (bool, error) {
	if l.verify == nil {
		return false, errors.New("no verifier configured")
	}
	return l.verify(ctx, path)
}
