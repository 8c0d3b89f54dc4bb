package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingScheduler mimics the real scheduler: Start blocks until Stop.
type blockingScheduler struct {
	startErr error
	stopCh   chan struct{}
	started  chan struct{}
	stopped  bool
}

func newBlockingScheduler() *blockingScheduler {
	return &blockingScheduler{
		stopCh:  make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (s *blockingScheduler) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	close(s.started)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return nil
	}
}

func (s *blockingScheduler) Stop() error {
	s.stopped = true
	close(s.stopCh)
	return nil
}

func setupRunTest(mock SchedulerRunner) func() {
	oldRunner := schedulerRunner
	schedulerRunner = mock
	return func() { schedulerRunner = oldRunner }
}

func TestRunCmd_StopsGracefullyOnSignal(t *testing.T) {
	mock := newBlockingScheduler()
	cleanup := setupRunTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run"})
	defer rootCmd.SetArgs(nil)

	done := make(chan error, 1)
	go func() {
		done <- rootCmd.Execute()
	}()

	select {
	case <-mock.started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never started")
	}

	// Give the command a moment to install its signal handler after
	// starting the scheduler goroutine.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run command did not return after signal")
	}

	assert.True(t, mock.stopped)
	assert.Contains(t, buf.String(), "Scheduler running.")
	assert.Contains(t, buf.String(), "Scheduler stopped.")
}

func TestRunCmd_StartFailureReturnsError(t *testing.T) {
	mock := newBlockingScheduler()
	mock.startErr = errors.New("store unavailable")
	cleanup := setupRunTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler stopped unexpectedly")
	assert.False(t, mock.stopped)
}

func TestRunCmd_SchedulerNotConfigured(t *testing.T) {
	cleanup := setupRunTest(nil)
	defer cleanup()

	_, err := execute("run")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}
