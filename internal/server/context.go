package server

import (
	"context"
	"sync"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// ServerContext holds the lifetime of the HTTP server and the dependency
// checks run by the readiness endpoint.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	checks   map[string]ReadinessCheck
	shutdown bool
}

// NewServerContext creates a server context derived from ctx.
func NewServerContext(ctx context.Context) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		checks: make(map[string]ReadinessCheck),
	}
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// AddCheck registers a named readiness check, replacing any with the same name.
func (sc *ServerContext) AddCheck(name string, check ReadinessCheck) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.checks[name] = check
}

// Checks returns a copy of the registered readiness checks.
func (sc *ServerContext) Checks() map[string]ReadinessCheck {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make(map[string]ReadinessCheck, len(sc.checks))
	for name, check := range sc.checks {
		out[name] = check
	}
	return out
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
