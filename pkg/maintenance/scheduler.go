// Package maintenance runs periodic housekeeping jobs on cron schedules:
// pruning old artifacts and sweeping expired session cache entries.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of periodic work.
type Job struct {
	// Name identifies the job in logs.
	Name string

	// Schedule is a standard five-field cron expression. An empty
	// schedule disables the job.
	Schedule string

	// Run performs one cycle.
	Run func(ctx context.Context) error
}

// Scheduler runs jobs at their scheduled times.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	entries map[string]cron.EntryID
	jobs    []Job
}

// NewScheduler creates a scheduler with no jobs.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.With("component", "maintenance.scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers a job. It must be called before Start.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "*/10 * * * *" - Every 10 minutes
//   - "0 */6 * * *"  - Every 6 hours
func (s *Scheduler) Add(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("job schedule not configured, skipping", "job", job.Name)
		return nil
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cannot add job %s: scheduler already started", job.Name)
	}
	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("duplicate job name: %s", job.Name)
	}
	s.entries[job.Name] = 0
	s.jobs = append(s.jobs, job)
	return nil
}

// Start schedules every registered job. The scheduler stops when ctx is
// cancelled. With no jobs it does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if len(s.jobs) == 0 {
		s.logger.Info("no maintenance jobs configured")
		return nil
	}

	for _, job := range s.jobs {
		id, err := s.cron.AddFunc(job.Schedule, func() {
			s.run(ctx, job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
		}
		s.entries[job.Name] = id
		s.logger.Info("maintenance job scheduled", "job", job.Name, "schedule", job.Schedule)
	}

	s.cron.Start()
	s.running = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("maintenance job failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Debug("maintenance job completed", "job", job.Name, "duration", time.Since(start))
}

// RunNow runs the named job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var job *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			job = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()

	if job == nil {
		return fmt.Errorf("unknown job: %s", name)
	}
	return job.Run(ctx)
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		done := s.cron.Stop()
		<-done.Done()
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled time of the named job, or nil when
// the job is unknown or the scheduler is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok || !s.running {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return nil
	}
	next := entry.Next
	return &next
}
