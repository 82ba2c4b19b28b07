package loader

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Batch is an ordered sequence of requests with one aggregate outcome.
type Batch struct {
	Requests []Request
	// StrictOrder runs requests one at a time in order, stopping at the
	// first failure. Otherwise all requests start concurrently and all run
	// to completion regardless of individual failures.
	StrictOrder bool
	// OnSuccess fires once if every request resolved successfully.
	OnSuccess func()
	// OnError fires once with the first failure otherwise.
	OnError func(err error)
}

// Resources is the caller-facing request shape: either a single resource
// (URL set) or a list of resources loaded as one batch (URLs set).
type Resources struct {
	URL    string
	Verify string

	URLs        []string
	StrictOrder bool

	OnSuccess func()
	OnError   func(err error)
}

// AddResources normalizes a Resources value into a batch and runs it.
func (l *Loader) AddResources(ctx context.Context, res Resources) error {
	b := Batch{
		StrictOrder: res.StrictOrder,
		OnError:     res.OnError,
	}
	if res.URL != "" {
		// Single form: the success callback belongs to the resource.
		b.Requests = []Request{{URL: res.URL, Verify: res.Verify, OnSuccess: res.OnSuccess}}
	} else {
		b.OnSuccess = res.OnSuccess
		for _, url := range res.URLs {
			b.Requests = append(b.Requests, Request{URL: url})
		}
	}
	return l.RunBatch(ctx, b)
}

// RunBatch loads every request in b and fires exactly one of
// OnSuccess/OnError. The returned error is the one passed to OnError.
func (l *Loader) RunBatch(ctx context.Context, b Batch) error {
	var err error
	if b.StrictOrder {
		err = l.runStrict(ctx, b.Requests)
	} else {
		err = l.runLoose(ctx, b.Requests)
	}

	if err != nil {
		log.Warn().Err(err).Int("resources", len(b.Requests)).Bool("strict", b.StrictOrder).Msg("Batch failed")
		if b.OnError != nil {
			b.OnError(err)
		}
		return err
	}

	log.Debug().Int("resources", len(b.Requests)).Bool("strict", b.StrictOrder).Msg("Batch completed")
	if b.OnSuccess != nil {
		b.OnSuccess()
	}
	return nil
}

// runStrict loads requests sequentially; request i+1 only starts after
// request i succeeded. Requests after the first failure are not attempted.
func (l *Loader) runStrict(ctx context.Context, reqs []Request) error {
	for _, req := range reqs {
		if err := l.Load(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runLoose starts all requests concurrently and waits for every one to
// settle. Failures do not cancel the others; the first failure observed is
// the batch outcome.
func (l *Loader) runLoose(ctx context.Context, reqs []Request) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, req := range reqs {
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			if err := l.Load(ctx, req); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(req)
	}

	wg.Wait()
	return firstErr
}
