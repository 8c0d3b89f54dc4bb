package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// countingRecovery counts periodic check invocations.
type countingRecovery struct {
	checks atomic.Int64
}

func (c *countingRecovery) DetectStuckJobs(_ context.Context) ([]driving.StuckJobReport, error) {
	return nil, nil
}

func (c *countingRecovery) RecoverStuckJobs(_ context.Context) (*driving.RecoveryResult, error) {
	return &driving.RecoveryResult{}, nil
}

func (c *countingRecovery) RunPeriodicCheck(_ context.Context) error {
	c.checks.Add(1)
	return nil
}

func TestScheduler_RunsPeriodicSweep(t *testing.T) {
	recovery := &countingRecovery{}
	sched := NewScheduler(recovery, nil, &recordingLogger{}, WithSweepInterval(5*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return recovery.checks.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	sched := NewScheduler(&countingRecovery{}, nil, &recordingLogger{})
	assert.NoError(t, sched.Stop())
}

func TestScheduler_ContextCancellation(t *testing.T) {
	sched := NewScheduler(&countingRecovery{}, nil, &recordingLogger{}, WithSweepInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}
