package app

import (
	"context"

	"github.com/dokzlo13/scriptd/internal/config"
	"github.com/dokzlo13/scriptd/internal/luart"
)

// RuntimeService wraps the Lua runtime and owns its worker goroutine.
type RuntimeService struct {
	cfg     *config.Config
	Runtime *luart.Runtime
}

// NewRuntimeService creates a new RuntimeService.
func NewRuntimeService(cfg *config.Config) *RuntimeService {
	return &RuntimeService{
		cfg:     cfg,
		Runtime: luart.NewRuntime(cfg.Runtime.QueueSize),
	}
}

// Start begins the Lua worker goroutine - the ONLY goroutine that touches Lua.
func (s *RuntimeService) Start(ctx context.Context) {
	go s.Runtime.Run(ctx)
}

// Close closes the Lua runtime.
func (s *RuntimeService) Close() {
	if s.Runtime != nil {
		s.Runtime.Close()
	}
}
