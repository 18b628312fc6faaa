// Package scheduler triggers the daily birthday pass on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/almeera/ultah/internal/logging"
	"github.com/robfig/cron/v3"
)

// ErrAlreadyRunning is returned by RunNow while another run is in flight.
var ErrAlreadyRunning = errors.New("job already running")

// Job is the work triggered on each tick.
type Job func(ctx context.Context) error

// Service runs one job on a cron schedule.
type Service struct {
	spec    string
	job     Job
	cron    *cron.Cron
	entryID cron.EntryID

	mu      sync.Mutex
	started bool
	// running serializes scheduled and manual runs.
	running sync.Mutex
}

// NewService parses spec (standard 5-field cron) and binds it to job. A nil
// location means time.Local.
func NewService(spec string, loc *time.Location, job Job) (*Service, error) {
	if job == nil {
		return nil, errors.New("scheduler job is required")
	}
	if loc == nil {
		loc = time.Local
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	return &Service{
		spec: spec,
		job:  job,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}, nil
}

// Start registers the job and starts cron execution. Scheduled runs use ctx.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}

	id, err := s.cron.AddFunc(s.spec, func() {
		if err := s.run(ctx, "schedule"); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			logging.Logger().Warn("scheduled run failed", "cron", s.spec, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register cron job: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.started = true
	logging.Logger().Info("scheduler started", "cron", s.spec, "next", s.Next())
	return nil
}

// Stop stops cron and waits for in-flight callbacks to finish or ctx cancellation.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	doneCtx := s.cron.Stop()
	s.cron.Remove(s.entryID)
	s.started = false
	s.mu.Unlock()

	select {
	case <-doneCtx.Done():
		logging.Logger().Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes the job immediately, outside the schedule.
func (s *Service) RunNow(ctx context.Context) error {
	return s.run(ctx, "manual")
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *Service) Next() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Service) run(ctx context.Context, source string) error {
	if !s.running.TryLock() {
		logging.Logger().Warn("job run skipped; previous run still in progress", "source", source)
		return ErrAlreadyRunning
	}
	defer s.running.Unlock()

	started := time.Now()
	logging.Logger().Info("job run", "source", source)
	if err := s.job(ctx); err != nil {
		logging.Logger().Warn("job run failed", "source", source, "err", err)
		return err
	}
	logging.Logger().Info("job run complete", "source", source, "duration", time.Since(started).Round(time.Millisecond))
	return nil
}
