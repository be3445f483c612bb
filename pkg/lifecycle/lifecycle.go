// Package lifecycle coordinates startup and shutdown hooks across the
// subsystems of a process (database, storage, event publisher, HTTP server).
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator runs named startup hooks concurrently, tracks readiness, and
// runs shutdown hooks once its context is cancelled.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup

	mu       sync.Mutex
	failures []error
	pending  map[string]int

	ready atomic.Bool
}

// New creates a Coordinator with a cancellable root context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]int),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently with the other startup hooks. A returned
// error is reported by WaitForStartup under name.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures = append(c.failures, fmt.Errorf("%s: %w", name, err))
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers fn to run once Shutdown cancels the context.
func (c *Coordinator) OnShutdown(name string, fn func()) {
	c.mu.Lock()
	c.pending[name]++
	c.mu.Unlock()

	c.shutdown.Go(func() {
		<-c.ctx.Done()
		fn()

		c.mu.Lock()
		if c.pending[name]--; c.pending[name] == 0 {
			delete(c.pending, name)
		}
		c.mu.Unlock()
	})
}

// WaitForStartup blocks until every startup hook has returned. The
// coordinator becomes ready only when all of them succeeded.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()

	c.mu.Lock()
	err := errors.Join(c.failures...)
	c.mu.Unlock()

	c.ready.Store(err == nil)
	return err
}

// Ready reports whether startup completed without failures and shutdown
// has not begun.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// WaitForSignal blocks until one of signals arrives or the context is
// cancelled.
func (c *Coordinator) WaitForSignal(signals ...os.Signal) {
	ctx, stop := signal.NotifyContext(c.ctx, signals...)
	defer stop()
	<-ctx.Done()
}

// Shutdown cancels the context and waits up to timeout for the shutdown
// hooks. On timeout the error names the hooks still running.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v, waiting on %v", timeout, c.stalled())
	}
}

func (c *Coordinator) stalled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.pending))
	for name := range c.pending {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
