// Package sched runs the brief coordinator once a day at a configured
// wall-clock time.
package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/model"
)

// runTimeout bounds a single scheduled run end to end.
const runTimeout = 15 * time.Minute

// Runner executes one brief pass. *brief.Coordinator satisfies it.
type Runner interface {
	Run(ctx context.Context) (*model.RunRecord, error)
}

// State represents what the scheduler is currently doing.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status is a snapshot of the scheduler for display.
type Status struct {
	State      State
	NextRun    time.Time
	LastRun    time.Time
	LastResult string
	Err        error
}

// Scheduler fires the runner daily at a fixed local time. Runs are
// strictly sequential: a manual trigger during a run is deferred until
// the run finishes.
type Scheduler struct {
	runner Runner
	runAt  string
	loc    *time.Location
	log    *zap.Logger

	mu        sync.Mutex
	running   bool
	status    Status
	stopCh    chan struct{}
	triggerCh chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Scheduler firing at runAt ("15:04" wall clock) in loc.
func New(runner Runner, runAt string, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if _, err := time.Parse("15:04", runAt); err != nil {
		return nil, fmt.Errorf("invalid run time %q: %w", runAt, err)
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		runner:    runner,
		runAt:     runAt,
		loc:       loc,
		log:       log,
		stopCh:    make(chan struct{}),
		triggerCh: make(chan struct{}, 1),
		now:       time.Now,
	}, nil
}

// Start launches the scheduling loop. It is a no-op when already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.status.State = StateIdle
	s.status.NextRun = nextRunAfter(s.now().In(s.loc), s.runAt)

	s.log.Info("scheduler started",
		zap.String("run_at", s.runAt),
		zap.String("timezone", s.loc.String()),
		zap.Time("next_run", s.status.NextRun),
	)
	go s.loop()
}

// Stop halts the scheduling loop. A run already in flight finishes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Trigger requests an immediate run. It never blocks; a trigger while a
// run is pending is coalesced into it.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) loop() {
	for {
		next := nextRunAfter(s.now().In(s.loc), s.runAt)
		s.setNextRun(next)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.triggerCh:
			timer.Stop()
			// A trigger racing Stop must not start a run.
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.runOnce()
		case <-timer.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	s.setState(StateRunning, nil, "")
	s.log.Info("scheduled run starting")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	rec, err := s.runner.Run(ctx)
	finished := s.now()
	if err != nil {
		s.log.Error("scheduled run failed", zap.Error(err))
		s.mu.Lock()
		s.status.State = StateError
		s.status.Err = err
		s.status.LastRun = finished
		if rec != nil {
			s.status.LastResult = rec.Status
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.status.State = StateIdle
	s.status.Err = nil
	s.status.LastRun = finished
	s.status.LastResult = rec.Status
	s.mu.Unlock()
	s.log.Info("scheduled run finished", zap.String("status", rec.Status))
}

func (s *Scheduler) setNextRun(t time.Time) {
	s.mu.Lock()
	s.status.NextRun = t
	s.mu.Unlock()
}

func (s *Scheduler) setState(state State, err error, result string) {
	s.mu.Lock()
	s.status.State = state
	s.status.Err = err
	if result != "" {
		s.status.LastResult = result
	}
	s.mu.Unlock()
}

// nextRunAfter returns the next occurrence of the runAt wall-clock time
// strictly after now, in now's location. runAt is pre-validated.
func nextRunAfter(now time.Time, runAt string) time.Time {
	at, _ := time.Parse("15:04", runAt)
	next := time.Date(now.Year(), now.Month(), now.Day(),
		at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
