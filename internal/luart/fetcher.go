package luart

import (
	"context"
	"fmt"
)

// Source retrieves raw script bytes for a URL.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ScriptFetcher is the loader's fetch primitive: it downloads a script and
// installs it by executing it on the Lua worker. It signals exactly one
// outcome per invocation.
type ScriptFetcher struct {
	source  Source
	runtime *Runtime
}

// NewScriptFetcher composes a source and a runtime into a fetch primitive.
func NewScriptFetcher(source Source, runtime *Runtime) *ScriptFetcher {
	return &ScriptFetcher{source: source, runtime: runtime}
}

// Fetch downloads and executes the script at url.
func (f *ScriptFetcher) Fetch(ctx context.Context, url string) error {
	src, err := f.source.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := f.runtime.ExecScript(ctx, url, string(src)); err != nil {
		return fmt.Errorf("script %q fetched but failed to install: %w", url, err)
	}
	return nil
}
