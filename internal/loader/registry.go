package loader

import (
	"fmt"
	"sync"
)

// Status describes the load state of a single resource.
type Status int

const (
	// StatusUnloaded means the resource has never been requested, or its
	// last load attempt failed and a fresh attempt is allowed.
	StatusUnloaded Status = iota
	// StatusLoading means a load is in flight; new callers attach as waiters.
	StatusLoading
	// StatusLoaded means the resource was fetched and installed successfully.
	StatusLoaded
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Waiter is notified exactly once when an in-flight load completes.
// A nil error means the load succeeded.
type Waiter func(err error)

// entry tracks one resource. Waiters are kept in arrival order and are
// only non-empty while status == StatusLoading.
type entry struct {
	status  Status
	waiters []Waiter
}

// Registry is the single authoritative record of per-resource load state.
// All mutation goes through BeginLoading/CompleteLoading; it is safe for
// concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// StatusOf reports the current load state of url.
func (r *Registry) StatusOf(url string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[url]; ok {
		return e.status
	}
	return StatusUnloaded
}

// BeginLoading transitions url from unloaded to loading. It returns an
// error if a load is already in flight or already completed; the caller
// must then attach as a waiter (or take the loaded short path) instead.
func (r *Registry) BeginLoading(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[url]
	if !ok {
		r.entries[url] = &entry{status: StatusLoading}
		return nil
	}
	if e.status != StatusUnloaded {
		return fmt.Errorf("resource %q is already %s", url, e.status)
	}
	e.status = StatusLoading
	return nil
}

// AddWaiter appends w to url's waiter queue. Valid only while a load is
// in flight; callers racing against completion get an error and must
// re-check the status.
func (r *Registry) AddWaiter(url string, w Waiter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[url]
	if !ok || e.status != StatusLoading {
		return fmt.Errorf("resource %q is not loading, nothing to wait on", url)
	}
	e.waiters = append(e.waiters, w)
	return nil
}

// CompleteLoading finishes an in-flight load. All waiters are notified
// synchronously, in the order they were added, with the same result.
// On success the entry becomes loaded permanently; on failure it reverts
// to unloaded so a later caller can retry.
func (r *Registry) CompleteLoading(url string, loadErr error) {
	r.mu.Lock()
	e, ok := r.entries[url]
	if !ok || e.status != StatusLoading {
		r.mu.Unlock()
		return
	}
	waiters := e.waiters
	e.waiters = nil
	if loadErr == nil {
		e.status = StatusLoaded
	} else {
		e.status = StatusUnloaded
	}
	r.mu.Unlock()

	// Notify outside the lock; waiters may call back into the registry.
	for _, w := range waiters {
		w(loadErr)
	}
}

// Snapshot returns a copy of all known resource states.
func (r *Registry) Snapshot() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Status, len(r.entries))
	for url, e := range r.entries {
		out[url] = e.status
	}
	return out
}
