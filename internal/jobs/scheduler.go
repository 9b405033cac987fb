// Package jobs runs the periodic maintenance tasks of the API on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/services"
)

// ErrUnknownJob is returned by RunNow for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// ErrJobRunning is returned by RunNow while the job is already executing.
var ErrJobRunning = errors.New("job is already running")

// Job is a named task with a standard five-field cron spec. Run returns a short summary.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (string, error)
}

// Status describes a job for the admin jobs page.
type Status struct {
	Name       string     `json:"name"`
	Spec       string     `json:"spec"`
	Running    bool       `json:"running"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	NextRunAt  time.Time  `json:"nextRunAt"`
	LastResult string     `json:"lastResult,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

type entry struct {
	job      Job
	schedule cron.Schedule
	status   Status
}

// Scheduler checks for and executes due jobs.
type Scheduler struct {
	mu       sync.Mutex
	entries  map[string]*entry
	order    []string
	activity services.ActivityServiceProvider
	interval time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler that checks for due jobs every minute.
func NewScheduler(activity services.ActivityServiceProvider) *Scheduler {
	return &Scheduler{
		entries:  make(map[string]*entry),
		activity: activity,
		interval: time.Minute,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Add registers a job. An empty spec disables the job.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		log.Info().Str("job", job.Name).Msg("Job disabled")
		return nil
	}
	schedule, err := cron.ParseStandard(job.Spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression for job %s: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[job.Name]; dup {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	s.entries[job.Name] = &entry{
		job:      job,
		schedule: schedule,
		status:   Status{Name: job.Name, Spec: job.Spec, NextRunAt: schedule.Next(s.now())},
	}
	s.order = append(s.order, job.Name)
	return nil
}

// Run starts the scheduler's ticking loop and blocks until ctx is done or Stop is called.
// Jobs still running at that point are waited for.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().Int("jobs", len(s.List())).Msg("Starting background scheduler...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			log.Info().Msg("Stopping background scheduler.")
			return
		case <-s.done:
			s.wg.Wait()
			log.Info().Msg("Stopping background scheduler.")
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// runDue starts every job whose next run time has passed and schedules its following run.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	var due []*entry
	for _, name := range s.order {
		e := s.entries[name]
		if now.Before(e.status.NextRunAt) {
			continue
		}
		e.status.NextRunAt = e.schedule.Next(now)
		if e.status.Running {
			log.Warn().Str("job", name).Msg("Scheduler: Skipping run, previous run still in progress")
			continue
		}
		e.status.Running = true
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			s.execute(ctx, e)
		}(e)
	}
}

// RunNow executes a job immediately and waits for it to finish.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*Status, error) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.status.Running {
		s.mu.Unlock()
		return nil, ErrJobRunning
	}
	e.status.Running = true
	s.mu.Unlock()

	s.execute(ctx, e)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := e.status
	return &st, nil
}

// execute runs a job that was already marked as running and records the outcome.
func (s *Scheduler) execute(ctx context.Context, e *entry) {
	start := s.now()
	log.Info().Str("job", e.job.Name).Msg("Scheduler: Executing job")
	result, err := e.job.Run(ctx)

	s.mu.Lock()
	e.status.Running = false
	e.status.LastRunAt = &start
	e.status.LastResult = result
	e.status.LastError = ""
	if err != nil {
		e.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("job", e.job.Name).Msg("Scheduler: Job failed")
		msg := fmt.Sprintf("Scheduled job '%s' failed: %v", e.job.Name, err)
		s.activity.Record(ctx, "job.failed", services.LevelError, msg, nil)
		return
	}
	log.Info().Str("job", e.job.Name).Str("result", result).Dur("took", s.now().Sub(start)).Msg("Scheduler: Job finished")
}

// List returns the status of every job in registration order.
func (s *Scheduler) List() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entries[name].status)
	}
	return out
}
