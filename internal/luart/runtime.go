// Package luart manages the shared Lua VM with single-threaded execution.
// All script execution and all inspection of the Lua globals happens on one
// worker goroutine; everything else talks to it through the work queue.
package luart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/scriptd/internal/loader"
	"github.com/dokzlo13/scriptd/internal/luart/modules"
)

// ErrRuntimeClosed is returned when the Lua runtime is closed
var ErrRuntimeClosed = fmt.Errorf("lua runtime closed")

// Work represents work to be executed on the Lua VM
// All Lua execution MUST go through this to ensure thread safety
type Work func(ctx context.Context)

// Runtime manages the Lua VM with single-threaded execution
type Runtime struct {
	L *lua.LState

	// Work queue for thread-safe Lua execution
	workQueue chan Work

	// Shutdown signaling - closing this channel signals senders to stop
	// Using a channel in select is race-free (unlike mutex + bool)
	closing   chan struct{}
	closeOnce sync.Once
}

// NewRuntime creates a new Lua runtime. queueSize bounds the number of
// pending work items; zero or negative selects the default.
func NewRuntime(queueSize int) *Runtime {
	if queueSize <= 0 {
		queueSize = 100
	}

	r := &Runtime{
		L:         lua.NewState(),
		workQueue: make(chan Work, queueSize),
		closing:   make(chan struct{}),
	}

	r.registerModules()

	return r
}

// Close signals the runtime to stop accepting new work and closes the Lua state.
// This is safe to call concurrently with Do/DoSync - they will see the closing signal.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		close(r.closing)
	})
	// Note: We don't close workQueue to avoid send-on-closed-channel panics.
	// The channel will be garbage collected when no longer referenced.
	// Run() will exit when it sees the closing signal.
	r.L.Close()
}

// Do queues work to be executed on the Lua VM (thread-safe, non-blocking)
// Returns false if the runtime is closing, queue is full, or context is cancelled.
func (r *Runtime) Do(ctx context.Context, work Work) bool {
	// Checked separately: a select with both the closing and the send case
	// ready picks at random, and closed must always win.
	select {
	case <-r.closing:
		log.Warn().Msg("Lua runtime closing, dropping work")
		return false
	default:
	}

	select {
	case <-r.closing:
		log.Warn().Msg("Lua runtime closing, dropping work")
		return false
	case <-ctx.Done():
		log.Warn().Msg("Context cancelled, dropping Lua work")
		return false
	case r.workQueue <- work:
		return true
	default:
		log.Warn().Msg("Lua work queue full, dropping work")
		return false
	}
}

// DoSyncWithResult queues work, waits for space, and waits for the result.
// This is what the loader uses to install scripts and inspect globals.
func (r *Runtime) DoSyncWithResult(ctx context.Context, work func(context.Context) error) error {
	done := make(chan error, 1)
	wrappedWork := Work(func(c context.Context) {
		done <- work(c)
	})

	// Queue the work
	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.workQueue <- wrappedWork:
		// Successfully queued
	}

	// Wait for result
	select {
	case <-r.closing:
		return ErrRuntimeClosed
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// ExecScript compiles and runs a script chunk on the Lua worker. name is
// used in Lua stack traces and should be the script's URL.
func (r *Runtime) ExecScript(ctx context.Context, name, source string) error {
	return r.DoSyncWithResult(ctx, func(context.Context) error {
		fn, err := r.L.Load(strings.NewReader(source), name)
		if err != nil {
			return fmt.Errorf("failed to compile script %q: %w", name, err)
		}
		r.L.Push(fn)
		if err := r.L.PCall(0, lua.MultRet, nil); err != nil {
			return fmt.Errorf("failed to execute script %q: %w", name, err)
		}
		return nil
	})
}

// GlobalExists reports whether the dotted path resolves to a non-nil value
// in the Lua globals. The table walk runs on the worker goroutine.
func (r *Runtime) GlobalExists(ctx context.Context, path string) (bool, error) {
	var ok bool
	err := r.DoSyncWithResult(ctx, func(context.Context) error {
		ok = loader.Exists(path, Globals(r.L))
		return nil
	})
	return ok, err
}

// Run starts the Lua worker goroutine - this is the ONLY goroutine that touches Lua
// It includes panic recovery to prevent crashes from killing the worker.
// Exits when context is cancelled or runtime is closed.
func (r *Runtime) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drainQueue(ctx)
			return
		case <-r.closing:
			r.drainQueue(ctx)
			return
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		}
	}
}

// drainQueue processes any remaining work in the queue before exiting
func (r *Runtime) drainQueue(ctx context.Context) {
	for {
		select {
		case work := <-r.workQueue:
			r.executeWork(ctx, work)
		default:
			return
		}
	}
}

// executeWork runs a single work item with panic recovery
func (r *Runtime) executeWork(ctx context.Context, work Work) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Msg("Lua work panicked - worker continuing")
		}
	}()
	// Set context on LState so modules can access it via L.Context()
	r.L.SetContext(ctx)
	work(ctx)
}

// registerModules registers the modules available to loaded scripts
func (r *Runtime) registerModules() {
	logModule := modules.NewLogModule()
	r.L.PreloadModule("log", logModule.Loader)
}
