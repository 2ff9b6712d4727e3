package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/aescanero/plexo/pkg/ports"
	"go.uber.org/zap"
)

// Job represents one in-flight plugin execution unit.
type Job struct {
	Name      string
	RunID     string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewJob creates a tracked job for a launched execution unit. cancel
// is the unit's cancellation handle; the orchestrator closes the job
// via Finish when the unit terminates.
func NewJob(name, runID string, cancel context.CancelFunc) *Job {
	return &Job{
		Name:      name,
		RunID:     runID,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Finish marks the job's execution unit as terminated.
func (j *Job) Finish() {
	close(j.done)
}

// Alive reports whether the execution unit is still running.
func (j *Job) Alive() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

// Registry tracks the set of currently-executing plugin jobs. It is an
// ordered collection mutated only by the orchestrator's control flow:
// launch appends, the blocking wait prunes, and kill removes.
type Registry struct {
	interval time.Duration
	logger   *zap.Logger
	metrics  ports.MetricsCollector

	mu   sync.Mutex
	jobs []*Job
}

// NewRegistry creates a job registry polling liveness at the given
// interval during blocking waits.
func NewRegistry(interval time.Duration, metrics ports.MetricsCollector, logger *zap.Logger) *Registry {
	return &Registry{
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// Add tracks a newly-launched job. It returns false without adding
// when a live job with the same name is already tracked; a plugin name
// appears at most once among live jobs.
func (r *Registry) Add(job *Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		if j.Name == job.Name && j.Alive() {
			return false
		}
	}

	r.jobs = append(r.jobs, job)
	r.metrics.SetActiveJobs(len(r.jobs))
	return true
}

// Block waits until no tracked job remains alive, polling at the
// registry interval and pruning terminated jobs each cycle. It returns
// early when ctx is cancelled.
func (r *Registry) Block(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		remaining := r.prune()
		if len(remaining) == 0 {
			r.logger.Info("all plugin jobs finished")
			return nil
		}

		r.logger.Info("waiting on plugin jobs",
			zap.Int("count", len(remaining)),
			zap.Strings("jobs", remaining))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Busy reports whether at least one tracked job is currently alive.
func (r *Registry) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		if j.Alive() {
			return true
		}
	}
	return false
}

// Names returns the currently tracked job names in launch order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Get looks up a tracked job by name.
func (r *Registry) Get(name string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		if j.Name == name {
			return j, true
		}
	}
	return nil, false
}

// Kill requests termination of the named job and drops it from the
// registry. It returns true when a job was found and the termination
// request was issued.
//
// Termination is a best-effort cancellation signal: the job's context
// is cancelled and clean-up is skipped, but a plugin body that ignores
// its context keeps its goroutine until it returns on its own.
func (r *Registry) Kill(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, j := range r.jobs {
		if j.Name == name {
			j.cancel()
			r.jobs = append(r.jobs[:i], r.jobs[i+1:]...)
			r.metrics.SetActiveJobs(len(r.jobs))
			r.metrics.RecordKill()
			r.logger.Warn("plugin job killed", zap.String("plugin", name))
			return true
		}
	}
	return false
}

// KillAll cancels every tracked job. Used during shutdown.
func (r *Registry) KillAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		j.cancel()
	}
	r.jobs = nil
	r.metrics.SetActiveJobs(0)
}

// prune drops terminated jobs and returns the names still alive.
func (r *Registry) prune() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.jobs[:0]
	for _, j := range r.jobs {
		if j.Alive() {
			live = append(live, j)
		}
	}
	r.jobs = live
	r.metrics.SetActiveJobs(len(r.jobs))

	names := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		names = append(names, j.Name)
	}
	return names
}
