package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// DefaultSweepInterval is how often the stuck-job sweep runs.
const DefaultSweepInterval = 5 * time.Minute

// DefaultGCInterval is how often the blob garbage-collection sweep runs.
const DefaultGCInterval = 1 * time.Hour

// Scheduler drives the periodic maintenance sweeps: stuck-job recovery
// and blob garbage collection. It is a pure core service with no
// external control API.
type Scheduler struct {
	recovery      driving.RecoveryService
	blobs         driving.BlobService
	events        driven.EventLogger
	sweepInterval time.Duration
	gcInterval    time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSweepInterval overrides the stuck-job sweep interval.
func WithSweepInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithGCInterval overrides the garbage-collection interval.
func WithGCInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.gcInterval = d
		}
	}
}

// NewScheduler creates a maintenance scheduler. The blob service is
// optional; when nil only the stuck-job sweep runs.
func NewScheduler(recovery driving.RecoveryService, blobs driving.BlobService, events driven.EventLogger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		recovery:      recovery,
		blobs:         blobs,
		events:        events,
		sweepInterval: DefaultSweepInterval,
		gcInterval:    DefaultGCInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for an in-flight
// sweep to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	sweepTicker := time.NewTicker(s.sweepInterval)
	defer sweepTicker.Stop()
	gcTicker := time.NewTicker(s.gcInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-sweepTicker.C:
			s.runSweep(ctx)
		case <-gcTicker.C:
			s.runGC(ctx)
		}
	}
}

// runSweep runs one stuck-job recovery pass.
func (s *Scheduler) runSweep(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.recovery.RunPeriodicCheck(ctx); err != nil {
		s.events.Log(driven.Event{
			Level:   driven.LevelError,
			Source:  "SCHEDULER",
			Action:  "SWEEP_FAILED",
			Message: fmt.Sprintf("stuck-job sweep failed: %v", err),
		})
	}
}

// runGC runs one blob garbage-collection pass.
func (s *Scheduler) runGC(ctx context.Context) {
	if s.blobs == nil {
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()

	if _, err := s.blobs.RunGarbageCollection(ctx, uuid.NewString()); err != nil {
		s.events.Log(driven.Event{
			Level:   driven.LevelError,
			Source:  "SCHEDULER",
			Action:  "GC_FAILED",
			Message: fmt.Sprintf("blob gc failed: %v", err),
		})
	}
}
