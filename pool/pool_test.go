package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExecutesEveryActionExactlyOnce(t *testing.T) {
	const n = 20
	counts := make([]int32, n)

	actions := make([]Action, n)
	for i := 0; i < n; i++ {
		i := i
		actions[i] = func(ctx context.Context) error {
			atomic.AddInt32(&counts[i], 1)
			return nil
		}
	}

	h := Run(context.Background(), actions, 4)
	require.NoError(t, h.Wait())

	for i, c := range counts {
		assert.Equal(t, int32(1), c, "action %d", i)
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	const n = 12
	const limit = 3

	var running, peak int32
	actions := make([]Action, n)
	for i := range actions {
		actions[i] = func(ctx context.Context) error {
			cur := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}
	}

	h := Run(context.Background(), actions, limit)
	require.NoError(t, h.Wait())

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestRunReturnsWithoutWaiting(t *testing.T) {
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	started := time.Now()
	h := Run(context.Background(), []Action{
		func(ctx context.Context) error {
			defer wg.Done()
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}, 1)

	// Run must not block on the action
	assert.Less(t, time.Since(started), time.Second)

	select {
	case <-h.Done():
		t.Fatal("pool reported done while an action was still blocked")
	default:
	}

	close(release)
	wg.Wait()
	require.NoError(t, h.Wait())
}

func TestRunActionErrorCancelsPool(t *testing.T) {
	cancelErr := errors.New("run aborted")
	var startedAfter int32

	actions := []Action{
		func(ctx context.Context) error { return cancelErr },
	}
	for i := 0; i < 50; i++ {
		actions = append(actions, func(ctx context.Context) error {
			atomic.AddInt32(&startedAfter, 1)
			return nil
		})
	}

	h := Run(context.Background(), actions, 1)
	err := h.Wait()

	require.ErrorIs(t, err, cancelErr)
	// With a single worker, cancellation must stop the queue before it drains
	assert.Less(t, atomic.LoadInt32(&startedAfter), int32(50))
}

func TestRunFirstErrorWins(t *testing.T) {
	first := errors.New("first")

	h := Run(context.Background(), []Action{
		func(ctx context.Context) error { return first },
		func(ctx context.Context) error { return errors.New("second") },
	}, 1)

	assert.ErrorIs(t, h.Wait(), first)
}

func TestRunEmptyActions(t *testing.T) {
	h := Run(context.Background(), nil, 4)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("empty pool did not complete immediately")
	}
	assert.NoError(t, h.Wait())
}

func TestRunParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	blocked := make(chan struct{})
	h := Run(ctx, []Action{
		func(ctx context.Context) error {
			close(blocked)
			<-ctx.Done()
			return nil
		},
		func(ctx context.Context) error { return nil },
	}, 1)

	<-blocked
	cancel()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not wind down after parent cancellation")
	}
}
