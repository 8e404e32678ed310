// Package scheduler runs periodic background jobs such as the quotation
// expiry sweep.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/ordertocash/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig is returned when a job has no name, runner or interval
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAlreadyRunning is returned by Register after Start
	ErrAlreadyRunning = errors.New("scheduler is already running")
)

// Job is one periodic task
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero means the interval
	Timeout time.Duration
	// RunOnStart triggers one run immediately instead of waiting a full interval
	RunOnStart bool
	Run        func(ctx context.Context, now time.Time) error
}

// Scheduler runs each registered job on its own ticker. Runs of the same
// job never overlap; a slow run delays the next tick.
type Scheduler struct {
	logger  *zap.Logger
	metrics *metrics.SchedulerMetrics
	now     func() time.Time

	jobs      []Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler; m may be nil
func New(logger *zap.Logger, m *metrics.SchedulerMetrics) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger, metrics: m, now: time.Now}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return ErrInvalidConfig
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrAlreadyRunning
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches one goroutine per job
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels running jobs and waits for them until ctx ends
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether Start has been called without Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if job.RunOnStart {
		s.runOnce(ctx, job)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

// RunNow executes job once on the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	return s.runOnce(ctx, job)
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.now()
	err := s.safeRun(runCtx, job, start)
	s.metrics.ObserveRun(job.Name, time.Since(start), err)

	if err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", job.Name),
			zap.String("reason", metrics.ClassifyError(err)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("Scheduled job finished",
		zap.String("job", job.Name),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (s *Scheduler) safeRun(ctx context.Context, job Job, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled job panicked", zap.String("job", job.Name), zap.Any("panic", r))
			err = errors.New("scheduled job panicked")
		}
	}()
	return job.Run(ctx, now)
}
