package loader

import (
	"context"
	"errors"
	"testing"
)

func TestRunBatch_StrictStopsAtFirstFailure(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.failWith["b"] = errors.New("boom")

	reg := NewRegistry()
	l := New(reg, fetcher, fetcher.verifyFunc())

	aSucceeded := false
	var batchErr error
	batchSucceeded := false

	err := l.RunBatch(context.Background(), Batch{
		StrictOrder: true,
		Requests: []Request{
			{URL: "a", OnSuccess: func() { aSucceeded = true }},
			{URL: "b"},
			{URL: "c"},
		},
		OnSuccess: func() { batchSucceeded = true },
		OnError:   func(err error) { batchErr = err },
	})

	if err == nil {
		t.Fatal("expected batch failure")
	}
	if !aSucceeded {
		t.Error("a's success callback should have fired before b failed")
	}
	if batchSucceeded {
		t.Error("batch OnSuccess must not fire on failure")
	}
	var ferr *FetchError
	if !errors.As(batchErr, &ferr) || ferr.URL != "b" {
		t.Errorf("batch error = %v, want b's fetch failure", batchErr)
	}
	if got := fetcher.callCount("c"); got != 0 {
		t.Errorf("c was fetched %d times, want 0 (never started)", got)
	}
	if got := reg.StatusOf("c"); got != StatusUnloaded {
		t.Errorf("c status = %v, want unloaded", got)
	}
}

func TestRunBatch_StrictAllSucceed(t *testing.T) {
	fetcher := newStubFetcher()
	l := New(NewRegistry(), fetcher, fetcher.verifyFunc())

	succeeded := false
	err := l.RunBatch(context.Background(), Batch{
		StrictOrder: true,
		Requests:    []Request{{URL: "a"}, {URL: "b"}, {URL: "c"}},
		OnSuccess:   func() { succeeded = true },
		OnError:     func(error) { t.Error("OnError fired on success") },
	})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !succeeded {
		t.Error("batch OnSuccess did not fire")
	}
}

func TestRunBatch_LooseLetsOthersFinish(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.failWith["b"] = errors.New("boom")

	reg := NewRegistry()
	l := New(reg, fetcher, fetcher.verifyFunc())

	var batchErr error
	err := l.RunBatch(context.Background(), Batch{
		Requests: []Request{{URL: "a"}, {URL: "b"}, {URL: "c"}},
		OnError:  func(err error) { batchErr = err },
	})

	if err == nil {
		t.Fatal("expected batch failure")
	}
	var ferr *FetchError
	if !errors.As(batchErr, &ferr) || ferr.URL != "b" {
		t.Errorf("batch error = %v, want b's fetch failure", batchErr)
	}
	// Failure of b does not cancel a and c; both must reach loaded state.
	if got := reg.StatusOf("a"); got != StatusLoaded {
		t.Errorf("a status = %v, want loaded", got)
	}
	if got := reg.StatusOf("c"); got != StatusLoaded {
		t.Errorf("c status = %v, want loaded", got)
	}
}

func TestRunBatch_EmptySucceeds(t *testing.T) {
	l := New(NewRegistry(), newStubFetcher(), nil)

	succeeded := false
	if err := l.RunBatch(context.Background(), Batch{OnSuccess: func() { succeeded = true }}); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !succeeded {
		t.Error("empty batch should succeed")
	}
}

func TestAddResources_SingleForm(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.install["u"] = "lib"

	l := New(NewRegistry(), fetcher, fetcher.verifyFunc())

	succeeded := false
	err := l.AddResources(context.Background(), Resources{
		URL:       "u",
		Verify:    "lib",
		OnSuccess: func() { succeeded = true },
	})
	if err != nil {
		t.Fatalf("AddResources: %v", err)
	}
	if !succeeded {
		t.Error("OnSuccess did not fire")
	}
}

func TestAddResources_ListForm(t *testing.T) {
	fetcher := newStubFetcher()
	reg := NewRegistry()
	l := New(reg, fetcher, fetcher.verifyFunc())

	succeeded := false
	err := l.AddResources(context.Background(), Resources{
		URLs:        []string{"a", "b"},
		StrictOrder: true,
		OnSuccess:   func() { succeeded = true },
	})
	if err != nil {
		t.Fatalf("AddResources: %v", err)
	}
	if !succeeded {
		t.Error("OnSuccess did not fire")
	}
	if got := reg.StatusOf("a"); got != StatusLoaded {
		t.Errorf("a status = %v, want loaded", got)
	}
	if got := reg.StatusOf("b"); got != StatusLoaded {
		t.Errorf("b status = %v, want loaded", got)
	}
}
