// Package scheduler triggers the daily sweep from a cron expression.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/marathon/internal/sweep"
	"github.com/2beens/marathon/pkg"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type sweepRunner interface {
	RunSweep(ctx context.Context, asOf time.Time) (*sweep.Report, error)
}

type Scheduler struct {
	runner   sweepRunner
	cron     *cron.Cron
	location *time.Location
	timeout  time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New parses schedule (standard 5 field cron or a descriptor like @daily) in location.
// timeout bounds a single sweep, zero means no bound.
func New(runner sweepRunner, schedule string, location *time.Location, timeout time.Duration) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}

	cronLogger := cron.PrintfLogger(log.StandardLogger())
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			// a sweep that overruns its slot is not started twice
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:   runner,
		cron:     c,
		location: location,
		timeout:  timeout,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}

	if _, err := c.AddFunc(schedule, func() {
		s.RunOnce(s.ctx)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("parse sweep schedule [%s]: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		log.Infof("scheduler: next sweep at %s", entry.Next.In(s.location).Format(time.RFC3339))
	}
}

// Stop stops scheduling new sweeps and waits for a running one, until ctx is done.
// A sweep still running when ctx is done gets its context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-stopped.Done()
		return fmt.Errorf("wait for running sweep: %w", ctx.Err())
	}
}

// RunOnce sweeps as of today in the scheduler's location.
func (s *Scheduler) RunOnce(ctx context.Context) {
	asOf := sweep.Today(s.location, s.now())
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Infof("scheduler: sweep as of %s", pkg.FormatDate(asOf))
	report, err := s.runner.RunSweep(ctx, asOf)
	switch {
	case errors.Is(err, sweep.ErrSweepRunning):
		log.Warnf("scheduler: skip sweep as of %s, another one is running", pkg.FormatDate(asOf))
	case err != nil:
		log.Errorf("scheduler: sweep as of %s failed: %s", pkg.FormatDate(asOf), err)
	case report.Err() != nil:
		log.Warnf("scheduler: sweep as of %s finished with %d failed subjects", pkg.FormatDate(asOf), len(report.Errors))
	}
}
