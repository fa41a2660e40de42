// Package pool provides the bounded worker pool that multiplexes a fixed
// number of workers over a list of launch actions. Starting a pool is
// fire-and-forget: Run returns as soon as the actions are scheduled, and the
// returned handle reports completion and run-wide cancellation separately.
package pool

import (
	"context"
	"sync"
)

// Action is a single unit of work. A nil return means the action handled its
// own outcome; a non-nil return signals run-wide cancellation and aborts the
// pool.
type Action func(ctx context.Context) error

// Handle tracks an in-flight pool started by Run.
type Handle struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Done returns a channel closed once every worker has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the pool has wound down and returns the first
// cancellation error an action produced, if any.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) record(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err == nil {
		h.err = err
	}
}

// Run executes the actions with at most limit running concurrently. It
// returns without waiting for any action to finish. Each action executes at
// most once; every action executes exactly once unless the pool is cancelled
// first. When an action returns an error the pool context is cancelled, so
// queued actions never start and in-flight actions are asked to stop.
func Run(ctx context.Context, actions []Action, limit int) *Handle {
	if limit < 1 {
		limit = 1
	}
	if len(actions) > 0 && limit > len(actions) {
		limit = len(actions)
	}

	h := &Handle{done: make(chan struct{})}
	if len(actions) == 0 {
		close(h.done)
		return h
	}

	ctx, cancel := context.WithCancel(ctx)

	// Conservative buffer: 2x workers, independent of the action count
	workChan := make(chan Action, min(limit*2, 100))

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case action, ok := <-workChan:
					if !ok {
						return
					}
					if err := action(ctx); err != nil {
						h.record(err)
						cancel()
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed work to the workers
	go func() {
		defer close(workChan)
		for _, action := range actions {
			select {
			case workChan <- action:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		cancel()
		close(h.done)
	}()

	return h
}
