// Package lifecycle sequences process startup and shutdown. Startup hooks run
// as soon as they are registered; shutdown hooks park on Context until
// Shutdown cancels it.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type Coordinator struct {
	ctx      context.Context
	cancel   context.CancelFunc
	starting sync.WaitGroup
	stopping sync.WaitGroup
	ready    atomic.Bool
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

func (c *Coordinator) OnStartup(fn func()) {
	c.starting.Go(fn)
}

// OnShutdown hooks must block on <-Context().Done() before releasing
// their resources.
func (c *Coordinator) OnShutdown(fn func()) {
	c.stopping.Go(fn)
}

func (c *Coordinator) Ready() bool {
	return c.ready.Load() && c.ctx.Err() == nil
}

// WaitForStartup returns once every startup hook has finished and marks
// the process ready.
func (c *Coordinator) WaitForStartup() {
	c.starting.Wait()
	c.ready.Store(true)
}

// Shutdown is safe to call more than once; later calls wait on the same
// hooks.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.stopping.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("lifecycle: shutdown hooks still running after %v", timeout)
	}
}
