// Package scheduler runs the periodic payment jobs: the overdue sweep and
// the stale transaction expiry.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// JobStatus is the outcome of a job's most recent run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is one run of a periodic job
type JobFunc func(ctx context.Context) error

// Job is a function run every Interval
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
}

// JobState reports the last run of a job
type JobState struct {
	Name        string
	Status      JobStatus
	Runs        int
	Failures    int
	LastError   string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled bool
	// InitialDelay postpones the first run after Start
	InitialDelay time.Duration
	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:      true,
		InitialDelay: 10 * time.Second,
		JobTimeout:   10 * time.Minute,
	}
}

// Scheduler runs registered jobs on fixed intervals. A job never overlaps
// itself: the next tick is scheduled after the current run returns.
type Scheduler struct {
	config SchedulerConfig
	logger *zap.Logger

	jobs   []Job
	states map[string]*JobState

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger.Named("scheduler"),
		states: make(map[string]*JobState),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, exists := s.states[job.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateJob, job.Name)
	}
	s.jobs = append(s.jobs, job)
	s.states[job.Name] = &JobState{Name: job.Name, Status: JobStatusPending}
	return nil
}

// Start starts one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Scheduler is disabled")
		return nil
	}
	s.isRunning = true
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(jobs)),
		zap.Duration("initial_delay", s.config.InitialDelay),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

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

// State returns a copy of the named job's state
func (s *Scheduler) State(name string) (JobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[name]
	if !ok {
		return JobState{}, false
	}
	return *st, true
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	delay := s.config.InitialDelay
	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("Job loop stopping", zap.String("job", job.Name))
			return
		case <-timer.C:
			s.execute(ctx, job)
		}
		delay = job.Interval
	}
}

// execute runs the job once. A panic is recovered and recorded as a failure
// so the loop keeps going.
func (s *Scheduler) execute(ctx context.Context, job Job) {
	started := time.Now()
	s.update(job.Name, func(st *JobState) {
		st.Status = JobStatusRunning
		st.StartedAt = &started
	})

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		telemetry.WithProfilingLabels(jobCtx, map[string]string{telemetry.ProfilingLabelJob: job.Name}, func(ctx context.Context) {
			err = job.Run(ctx)
		})
		return err
	}()

	completed := time.Now()
	s.update(job.Name, func(st *JobState) {
		st.Runs++
		st.CompletedAt = &completed
		if err != nil {
			st.Status = JobStatusFailed
			st.Failures++
			st.LastError = err.Error()
			return
		}
		st.Status = JobStatusSuccess
		st.LastError = ""
	})

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", completed.Sub(started)),
			zap.Error(err))
		return
	}
	s.logger.Debug("Job completed",
		zap.String("job", job.Name),
		zap.Duration("duration", completed.Sub(started)))
}

func (s *Scheduler) update(name string, fn func(*JobState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[name]; ok {
		fn(st)
	}
}
