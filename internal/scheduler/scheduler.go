// Package scheduler drives the engine's poll loop. Each check is a gocron
// one-time job; when it finishes, the next one is scheduled from the
// check's outcome.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/shaharia-lab/stockbell/internal/config"
	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/metrics"
)

// Delays shorter than this run immediately; gocron rejects start times
// already in the past.
const minDelay = 10 * time.Millisecond

// Checker runs one check. *engine.Engine satisfies it.
type Checker interface {
	RunCheck(ctx context.Context) (engine.Outcome, error)
}

// Policy decides how long to wait between checks.
type Policy struct {
	// Mode is config.ScheduleAdaptive or config.ScheduleFixed.
	Mode         string
	PollInterval time.Duration
	RetryBackoff time.Duration
	// UpdateBuffer is added to the shop's next update time in adaptive mode.
	UpdateBuffer     time.Duration
	MaxAdaptiveDelay time.Duration
}

// NextDelay returns the wait before the next check. A failed check waits
// RetryBackoff. In adaptive mode a successful check waits until the shop's
// next update plus UpdateBuffer; a missing, past or implausibly distant
// update time falls back to PollInterval.
func NextDelay(p Policy, out engine.Outcome, err error, now time.Time) time.Duration {
	if err != nil {
		return p.RetryBackoff
	}
	if p.Mode != config.ScheduleAdaptive || out.NextUpdate.IsZero() {
		return p.PollInterval
	}
	d := out.NextUpdate.Add(p.UpdateBuffer).Sub(now)
	if d <= 0 || d > p.MaxAdaptiveDelay {
		return p.PollInterval
	}
	return d
}

// Config holds the scheduler configuration.
type Config struct {
	Checker Checker
	Policy  Policy
	Logger  *slog.Logger
}

// Scheduler runs checks one at a time on a gocron scheduler.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	jobID   uuid.UUID
	hasJob  bool
	nextRun time.Time
	running bool
	kicked  bool
	stopped bool
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Checker == nil {
		return nil, errors.New("scheduler: checker is required")
	}
	if cfg.Policy.PollInterval <= 0 || cfg.Policy.RetryBackoff <= 0 {
		return nil, fmt.Errorf("scheduler: poll interval and retry backoff must be positive")
	}
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: logger}, nil
}

// Start schedules an immediate first check and starts the scheduler. Checks
// run with ctx until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	err := s.scheduleLocked(0)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("poll loop started",
		"mode", s.cfg.Policy.Mode, "poll_interval", s.cfg.Policy.PollInterval.String())
	return nil
}

// Stop shuts down the gocron scheduler. A check in progress is abandoned
// once its context is canceled by the caller.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.cron.Shutdown()
}

// Trigger requests a check as soon as possible. While a check is running,
// the request is remembered and served right after it.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.kicked = true
		return
	}
	if err := s.scheduleLocked(0); err != nil {
		s.logger.Warn("failed to schedule triggered check", "error", err)
	}
}

// NextRun returns when the next check is due, or the zero time while a
// check is running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return time.Time{}
	}
	return s.nextRun
}

func (s *Scheduler) execute() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.kicked = false
	ctx := s.ctx
	s.mu.Unlock()

	out, err := s.cfg.Checker.RunCheck(ctx)
	if err != nil {
		s.logger.Warn("check failed", "error", err)
	} else if out.Result != metrics.ResultUnchanged && out.Result != metrics.ResultSkipped {
		s.logger.Debug("check finished", "result", out.Result, "report_id", out.ReportID)
	}

	delay := NextDelay(s.cfg.Policy, out, err, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if s.stopped || ctx.Err() != nil {
		return
	}
	if s.kicked {
		s.kicked = false
		delay = 0
	}
	if err := s.scheduleLocked(delay); err != nil {
		s.logger.Error("failed to schedule next check, poll loop halted", "error", err)
	}
}

// scheduleLocked replaces the pending job with one that runs after delay.
// s.mu must be held.
func (s *Scheduler) scheduleLocked(delay time.Duration) error {
	if s.hasJob {
		if err := s.cron.RemoveJob(s.jobID); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			s.logger.Warn("failed to remove pending check", "error", err)
		}
		s.hasJob = false
	}

	var start gocron.OneTimeJobStartAtOption
	runAt := time.Now().Add(delay)
	if delay < minDelay {
		start = gocron.OneTimeJobStartImmediately()
	} else {
		start = gocron.OneTimeJobStartDateTime(runAt)
	}

	job, err := s.cron.NewJob(gocron.OneTimeJob(start), gocron.NewTask(s.execute))
	if err != nil {
		return fmt.Errorf("scheduling check: %w", err)
	}
	s.jobID = job.ID()
	s.hasJob = true
	s.nextRun = runAt
	s.logger.Debug("next check scheduled", "in", delay.String())
	return nil
}
