// Package syncx carries the small concurrency helpers the bot's long-running
// loops (bridge session, directory warm-up, broadcast schedule) are built on.
package syncx

import (
	"context"
	"sync"
)

// Group runs goroutines that share one cancellable context and can be
// awaited together. The zero value is not usable; construct with NewGroup.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGroup(parent context.Context) *Group {
	if parent == nil {
		parent = context.Background()
	}
	g := &Group{}
	g.ctx, g.cancel = context.WithCancel(parent)
	return g
}

// Context is the group's shared context; it is canceled by Stop or when the
// parent context ends.
func (g *Group) Context() context.Context { return g.ctx }

// Go starts fn under the group. fn is expected to return once its context is
// done.
func (g *Group) Go(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (g *Group) Wait() { g.wg.Wait() }

// Stop cancels the shared context and waits for the group to drain.
func (g *Group) Stop() {
	g.cancel()
	g.wg.Wait()
}
