package types

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCellStartsNotStarted(t *testing.T) {
	cell := NewStatusCell()
	assert.Equal(t, StatusNotStarted, cell.Load().Kind)
}

func TestStatusCellSetAndLoad(t *testing.T) {
	cell := NewStatusCell()
	cell.Set(Executing(Progress{Fraction: 0.5, Message: "halfway"}))

	status := cell.Load()
	assert.Equal(t, StatusExecuting, status.Kind)
	assert.Equal(t, 0.5, status.Progress.Fraction)
}

func TestStatusCellTerminalIsFrozen(t *testing.T) {
	cell := NewStatusCell()
	cell.Set(Done(Result{Outcome: OutcomePass}))

	// Writes after a terminal status must not be observed
	cell.Set(Executing(Progress{Message: "late"}))
	cell.Set(Errored(errors.New("late fault")))

	status := cell.Load()
	assert.Equal(t, StatusDone, status.Kind)
	assert.Equal(t, OutcomePass, status.Result.Outcome)
}

func TestStatusCellWatchSeesConcurrentWrite(t *testing.T) {
	cell := NewStatusCell()

	status, changed := cell.Watch()
	require.Equal(t, StatusNotStarted, status.Kind)

	go cell.Set(Executing(Progress{Message: "started"}))

	select {
	case <-changed:
		// Write observed
	case <-time.After(5 * time.Second):
		t.Fatal("watch channel never closed after a write")
	}
	assert.Equal(t, StatusExecuting, cell.Load().Kind)
}

func TestStatusCellWatchDoesNotMissWriteBeforeWait(t *testing.T) {
	cell := NewStatusCell()

	// A write racing with the start of a wait is either visible in the
	// snapshot or closes the returned channel; it can never be lost.
	status, changed := cell.Watch()
	cell.Set(Done(Result{Outcome: OutcomeFail}))

	if !status.Terminal() {
		select {
		case <-changed:
		default:
			t.Fatal("update between snapshot and wait registration was lost")
		}
	}
}

func TestStatusCellWaitTerminal(t *testing.T) {
	cell := NewStatusCell()

	go func() {
		cell.Set(Executing(Progress{Fraction: 0.1}))
		cell.Set(Executing(Progress{Fraction: 0.9}))
		cell.Set(Done(Result{Outcome: OutcomeSkip, Detail: "not supported here"}))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := cell.WaitTerminal(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status.Kind)
	assert.Equal(t, OutcomeSkip, status.Result.Outcome)
}

func TestStatusCellWaitTerminalHonorsContext(t *testing.T) {
	cell := NewStatusCell()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := cell.WaitTerminal(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusNotStarted, status.Kind)
}
