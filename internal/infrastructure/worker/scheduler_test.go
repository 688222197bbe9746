package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fxledger/internal/application"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

type flakySyncer struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakySyncer) SyncRates(context.Context) application.SyncResult {
	n := f.calls.Add(1)
	if n <= f.failures {
		return application.SyncResult{Message: "source unavailable"}
	}
	return application.SyncResult{Success: true, Count: 6}
}

type countingReconciler struct {
	calls atomic.Int32
	limit int
	err   error
}

func (c *countingReconciler) ReconcileUnresolved(_ context.Context, limit int) (int, error) {
	c.calls.Add(1)
	c.limit = limit
	return 1, c.err
}

func fastRetry(max uint64) func() backoff.BackOff {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), max)
	}
}

func TestRunOnce_RetriesUntilSuccess(t *testing.T) {
	syncer := &flakySyncer{failures: 2}
	rec := &countingReconciler{}
	s, err := NewScheduler(syncer, rec, "@every 1h", nil, nil)
	require.NoError(t, err)
	s.ReconcilePage = 50
	s.newBackOff = fastRetry(5)

	require.NoError(t, s.RunOnce(context.Background()))
	require.Equal(t, int32(3), syncer.calls.Load())
	require.Equal(t, int32(1), rec.calls.Load())
	require.Equal(t, 50, rec.limit)
}

func TestRunOnce_GivesUpButStillReconciles(t *testing.T) {
	syncer := &flakySyncer{failures: 100}
	rec := &countingReconciler{}
	s, err := NewScheduler(syncer, rec, "@every 1h", nil, nil)
	require.NoError(t, err)
	s.newBackOff = fastRetry(2)

	err = s.RunOnce(context.Background())
	require.EqualError(t, err, "source unavailable")
	require.Equal(t, int32(3), syncer.calls.Load())
	require.Equal(t, int32(1), rec.calls.Load())
}

func TestRunOnce_ReconcileError(t *testing.T) {
	boom := errors.New("boom")
	s, err := NewScheduler(&flakySyncer{}, &countingReconciler{err: boom}, "@every 1h", nil, nil)
	require.NoError(t, err)
	s.newBackOff = fastRetry(0)
	require.ErrorIs(t, s.RunOnce(context.Background()), boom)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(&flakySyncer{}, nil, "every tuesday", nil, nil)
	require.Error(t, err)
}

func TestStart_RunsOnStartAndStops(t *testing.T) {
	syncer := &flakySyncer{}
	s, err := NewScheduler(syncer, nil, "0 0 9 * * 1-5", time.UTC, nil)
	require.NoError(t, err)
	s.RunOnStart = true
	s.newBackOff = fastRetry(0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return syncer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type blockingSyncer struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingSyncer) SyncRates(ctx context.Context) application.SyncResult {
	if b.calls.Add(1) == 1 {
		select {
		case <-b.release:
		case <-ctx.Done():
		}
	}
	return application.SyncResult{Success: true}
}

func TestStart_StartupRunBlocksOverlappingTicks(t *testing.T) {
	syncer := &blockingSyncer{release: make(chan struct{})}
	s, err := NewScheduler(syncer, nil, "* * * * * *", time.UTC, nil)
	require.NoError(t, err)
	s.RunOnStart = true
	s.newBackOff = fastRetry(0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return syncer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// several per-second ticks fire while the start-up run is still busy
	time.Sleep(2500 * time.Millisecond)
	require.Equal(t, int32(1), syncer.calls.Load())

	close(syncer.release)
	require.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
