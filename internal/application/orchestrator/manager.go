package orchestrator

import (
	"context"
	"sort"
	"time"

	"github.com/aescanero/plexo/internal/application/jobs"
	"github.com/aescanero/plexo/pkg/plugin"
	"github.com/aescanero/plexo/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager coordinates concurrent plugin execution: it computes run
// order, gate-checks dependencies, launches one execution unit per
// plugin and feeds completion into the job and result registries.
type Manager struct {
	registry  *plugin.Registry
	validator *Validator
	jobs      *jobs.Registry
	store     ports.ResultStore
	bus       ports.EventBus
	metrics   ports.MetricsCollector
	logger    *zap.Logger

	settleDelay time.Duration
}

// NewManager creates a new orchestrator manager.
func NewManager(
	registry *plugin.Registry,
	validator *Validator,
	jobRegistry *jobs.Registry,
	store ports.ResultStore,
	bus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	settleDelay time.Duration,
) *Manager {
	return &Manager{
		registry:    registry,
		validator:   validator,
		jobs:        jobRegistry,
		store:       store,
		bus:         bus,
		metrics:     metrics,
		logger:      logger,
		settleDelay: settleDelay,
	}
}

// LoadDefaults loads the well-known default plugin set and returns the
// loaded names.
func (m *Manager) LoadDefaults() []string {
	names := m.registry.Load(plugin.DefaultPatterns)
	m.logger.Info("default plugins loaded", zap.Strings("plugins", names))
	return names
}

// DefaultNames returns the candidate names the default pattern set
// resolves to, without loading anything.
func (m *Manager) DefaultNames() []string {
	return m.registry.Parse(plugin.DefaultPatterns)
}

// LoadedNames returns the currently loaded plugin names.
func (m *Manager) LoadedNames() []string {
	return m.registry.Loaded()
}

// Run schedules and launches the named plugins. names may be nil to
// run every loaded plugin. Launch order is ascending declared priority
// (ties keep discovery order) followed by unprioritized plugins in
// discovery order.
//
// The first plugin in that order whose dependencies cannot be resolved
// aborts the call with an *UnsatisfiedDependencyError; plugins not yet
// launched in the call do not run, while already-launched units keep
// running unaffected.
//
// Run returns the run identifier carried by this batch's events.
func (m *Manager) Run(ctx context.Context, names []string, optionsByName map[string]plugin.Options) (string, error) {
	if names == nil {
		names = m.registry.Loaded()
	}

	runID := uuid.New().String()
	order := m.scheduleOrder(names)

	m.logger.Info("orchestration run starting",
		zap.String("run_id", runID),
		zap.Strings("order", order))
	m.publish(ports.Event{
		Type:  ports.EventTypeRunStarted,
		RunID: runID,
		Data:  map[string]any{"order": order},
	})

	for _, name := range order {
		descriptor, ok := m.registry.Descriptor(name)
		if !ok {
			m.logger.Warn("unknown plugin name, skipping",
				zap.String("run_id", runID),
				zap.String("plugin", name))
			continue
		}

		if err := m.validator.Check(descriptor); err != nil {
			m.logger.Error("dependency check failed, aborting remaining launches",
				zap.String("run_id", runID),
				zap.String("plugin", name),
				zap.Error(err))
			return runID, err
		}

		instance, err := m.registry.New(name, optionsByName[name])
		if err != nil {
			m.logger.Warn("plugin instantiation failed, skipping",
				zap.String("run_id", runID),
				zap.String("plugin", name),
				zap.Error(err))
			continue
		}

		// Jobs outlive the Run call; their context is detached from
		// the caller's and cancelled only by kill or shutdown.
		jobCtx, cancel := context.WithCancel(context.Background())
		job := jobs.NewJob(name, runID, cancel)

		if !m.jobs.Add(job) {
			cancel()
			m.logger.Warn("plugin already running, skipping",
				zap.String("run_id", runID),
				zap.String("plugin", name))
			continue
		}

		m.metrics.RecordPluginLaunched()
		m.publish(ports.Event{
			Type:   ports.EventTypePluginLaunched,
			Plugin: name,
			RunID:  runID,
		})
		m.logger.Info("plugin launched",
			zap.String("run_id", runID),
			zap.String("plugin", name))

		go m.execute(jobCtx, job, instance, descriptor)
	}

	// Advisory pause so freshly launched jobs get a chance to start.
	// Completion must be observed through Block, never through this.
	if m.settleDelay > 0 {
		select {
		case <-time.After(m.settleDelay):
		case <-ctx.Done():
		}
	}

	return runID, nil
}

// Block waits until no launched plugin remains running.
func (m *Manager) Block(ctx context.Context) error {
	return m.jobs.Block(ctx)
}

// Busy reports whether any plugin job is currently running.
func (m *Manager) Busy() bool {
	return m.jobs.Busy()
}

// JobNames returns the currently tracked job names.
func (m *Manager) JobNames() []string {
	return m.jobs.Names()
}

// Get looks up a tracked job by plugin name.
func (m *Manager) Get(name string) (*jobs.Job, bool) {
	return m.jobs.Get(name)
}

// Kill forcefully terminates the named job. Clean-up is not invoked
// and no result is registered for that plugin, even when its body
// ignores the cancellation and returns a payload later.
func (m *Manager) Kill(name string) bool {
	job, ok := m.jobs.Get(name)
	if !ok {
		return false
	}
	if !m.jobs.Kill(name) {
		return false
	}

	m.publish(ports.Event{
		Type:   ports.EventTypePluginKilled,
		Plugin: name,
		RunID:  job.RunID,
	})
	return true
}

// Results returns a snapshot of every registered result entry.
func (m *Manager) Results(ctx context.Context) (map[string]plugin.ResultEntry, error) {
	return m.store.All(ctx)
}

// Reset clears the result registry and releases the loaded plugin set.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.store.Reset(ctx); err != nil {
		return err
	}
	m.registry.ReleaseLoaded()
	m.metrics.SetStoredResults(0)
	m.logger.Info("result registry reset")
	return nil
}

// Shutdown cancels every running job.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestrator")
	m.jobs.KillAll()
	return nil
}

// scheduleOrder partitions names into prioritized and unprioritized
// plugins and returns the launch sequence: ascending priority first
// (stable within a bucket), then the rest in discovery order.
func (m *Manager) scheduleOrder(names []string) []string {
	type prioritized struct {
		name     string
		priority int
	}

	var ranked []prioritized
	var rest []string

	for _, name := range names {
		descriptor, ok := m.registry.Descriptor(name)
		if ok && descriptor.Info.Prioritized() {
			ranked = append(ranked, prioritized{name: name, priority: *descriptor.Info.Priority})
		} else {
			rest = append(rest, name)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].priority < ranked[j].priority
	})

	order := make([]string, 0, len(names))
	for _, p := range ranked {
		order = append(order, p.name)
	}
	return append(order, rest...)
}

// execute is one concurrent execution unit: prepare, run, clean up.
// Any failure inside the sequence is caught here, reported to the
// logger and swallowed; it never propagates to the orchestrator or to
// other units.
func (m *Manager) execute(ctx context.Context, job *jobs.Job, instance plugin.Instance, descriptor plugin.Descriptor) {
	defer job.Finish()

	start := time.Now()
	fields := []zap.Field{
		zap.String("run_id", job.RunID),
		zap.String("plugin", job.Name),
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("plugin panicked", append(fields, zap.Any("panic", r))...)
			m.finish(job, "failed", time.Since(start))
		}
	}()

	if err := instance.Prepare(ctx); err != nil {
		m.logger.Warn("plugin prepare failed", append(fields, zap.Error(err))...)
		m.finish(job, "failed", time.Since(start))
		return
	}
	if ctx.Err() != nil {
		m.logger.Warn("plugin killed during prepare, skipping run", fields...)
		m.finish(job, "killed", time.Since(start))
		return
	}

	payload, err := instance.Run(ctx)
	// A body that ignores its context may return long after a kill.
	// The kill point is final: whatever came back is discarded and
	// clean-up is skipped.
	if ctx.Err() != nil {
		m.logger.Warn("plugin run ended after kill, discarding result", fields...)
		m.finish(job, "killed", time.Since(start))
		return
	}
	if err != nil {
		m.logger.Warn("plugin run failed", append(fields, zap.Error(err))...)
		m.finish(job, "failed", time.Since(start))
		return
	}

	// The result is registered at the end of the run phase, before
	// clean-up, so a clean-up failure cannot lose it.
	if err := m.store.Register(ctx, job.Name, payload, descriptor.Info); err != nil {
		m.logger.Warn("result registration failed", append(fields, zap.Error(err))...)
	} else if n, err := m.store.Count(ctx); err == nil {
		m.metrics.SetStoredResults(n)
	}

	if err := instance.CleanUp(ctx); err != nil {
		m.logger.Warn("plugin clean-up failed", append(fields, zap.Error(err))...)
		m.finish(job, "failed", time.Since(start))
		return
	}

	m.logger.Info("plugin completed", append(fields, zap.Duration("duration", time.Since(start)))...)
	m.finish(job, "completed", time.Since(start))
}

// finish records completion metrics and publishes the terminal event
// for one execution unit.
func (m *Manager) finish(job *jobs.Job, status string, duration time.Duration) {
	m.metrics.RecordPluginCompleted(status, duration)

	eventType := ports.EventTypePluginCompleted
	if status != "completed" {
		eventType = ports.EventTypePluginFailed
	}
	m.publish(ports.Event{
		Type:   eventType,
		Plugin: job.Name,
		RunID:  job.RunID,
		Data:   map[string]any{"status": status, "duration_ms": duration.Milliseconds()},
	})
}

// publish stamps and emits an event, logging delivery failures.
func (m *Manager) publish(event ports.Event) {
	event.ID = uuid.New().String()
	event.Timestamp = time.Now()

	if err := m.bus.Publish(context.Background(), ports.TopicPluginEvents, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
