package types

import (
	"context"
	"sync"
)

// StatusCell holds the live Status of exactly one test. It is written by a
// single test executor and read by any number of observers. Writes after a
// terminal status are dropped, so observers can rely on terminal values
// never changing.
type StatusCell struct {
	mu      sync.Mutex
	status  Status
	changed chan struct{}
}

// NewStatusCell returns a cell in the NotStarted state.
func NewStatusCell() *StatusCell {
	return &StatusCell{
		status:  NotStarted(),
		changed: make(chan struct{}),
	}
}

// Load returns a snapshot of the current status.
func (c *StatusCell) Load() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Set publishes a new status and wakes all waiters. Once a terminal status
// has been stored the cell is frozen and further writes are no-ops.
func (c *StatusCell) Set(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.Terminal() {
		return
	}
	c.status = s
	close(c.changed)
	c.changed = make(chan struct{})
}

// Watch returns the current status together with a channel that is closed on
// the next write. Snapshot and registration happen under one lock, so a write
// racing with the start of a wait is never missed: either the snapshot
// already reflects it, or the channel will be closed by it.
func (c *StatusCell) Watch() (Status, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.changed
}

// WaitTerminal blocks until the cell reaches a terminal status or the context
// is done. It returns the last observed status in both cases.
func (c *StatusCell) WaitTerminal(ctx context.Context) (Status, error) {
	for {
		status, changed := c.Watch()
		if status.Terminal() {
			return status, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return status, ctx.Err()
		}
	}
}
