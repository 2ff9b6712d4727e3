package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/plexo/internal/application/jobs"
	eventsmemory "github.com/aescanero/plexo/pkg/adapters/events/memory"
	storagememory "github.com/aescanero/plexo/pkg/adapters/storage/memory"
	"github.com/aescanero/plexo/pkg/plugin"
	"github.com/aescanero/plexo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedPlugin struct {
	plugin.Base
	prepare func(context.Context) error
	run     func(context.Context) (any, error)
	cleanup func(context.Context) error
}

func (p *scriptedPlugin) Prepare(ctx context.Context) error {
	if p.prepare != nil {
		return p.prepare(ctx)
	}
	return nil
}

func (p *scriptedPlugin) Run(ctx context.Context) (any, error) {
	if p.run != nil {
		return p.run(ctx)
	}
	return "ok", nil
}

func (p *scriptedPlugin) CleanUp(ctx context.Context) error {
	if p.cleanup != nil {
		return p.cleanup(ctx)
	}
	return nil
}

// harness wires a manager with in-memory adapters and records the
// order plugins are instantiated in, which is the launch order.
type harness struct {
	registry *plugin.Registry
	store    *storagememory.ResultStore
	bus      *eventsmemory.EventBus
	manager  *Manager

	mu       sync.Mutex
	launched []string
}

func newHarness(t *testing.T, available map[string]bool) *harness {
	t.Helper()

	h := &harness{
		registry: plugin.NewRegistry(),
		store:    storagememory.NewResultStore(),
		bus:      eventsmemory.NewEventBus(),
	}

	jobRegistry := jobs.NewRegistry(5*time.Millisecond, ports.NopMetrics{}, zap.NewNop())
	validator := NewValidator(fakeResolver{available: available}, ports.NopMetrics{})

	h.manager = NewManager(
		h.registry,
		validator,
		jobRegistry,
		h.store,
		h.bus,
		ports.NopMetrics{},
		zap.NewNop(),
		0,
	)
	return h
}

func (h *harness) add(t *testing.T, d plugin.Descriptor, p scriptedPlugin) {
	t.Helper()

	err := h.registry.Register(d, func(name string, opts plugin.Options) plugin.Instance {
		h.mu.Lock()
		h.launched = append(h.launched, name)
		h.mu.Unlock()

		clone := p
		clone.Base = plugin.NewBase(name, opts)
		return &clone
	})
	require.NoError(t, err)
}

func (h *harness) launchOrder() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	order := make([]string, len(h.launched))
	copy(order, h.launched)
	return order
}

func TestRunLaunchOrderFollowsPriority(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "A", Info: plugin.Info{Priority: plugin.IntPtr(1)}}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "B", Info: plugin.Info{Priority: plugin.IntPtr(0)}}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "C"}, scriptedPlugin{})

	_, err := h.manager.Run(context.Background(), []string{"A", "B", "C"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	assert.Equal(t, []string{"B", "A", "C"}, h.launchOrder())
}

func TestRunSamePriorityKeepsDiscoveryOrder(t *testing.T) {
	h := newHarness(t, nil)
	for _, name := range []string{"one", "two", "three"} {
		h.add(t, plugin.Descriptor{Name: name, Info: plugin.Info{Priority: plugin.IntPtr(5)}}, scriptedPlugin{})
	}
	h.add(t, plugin.Descriptor{Name: "four"}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "five"}, scriptedPlugin{})

	_, err := h.manager.Run(context.Background(), []string{"one", "two", "three", "four", "five"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, h.launchOrder())
}

func TestRunAbortsRemainingOnUnsatisfiedDependency(t *testing.T) {
	h := newHarness(t, map[string]bool{"curl": true})
	h.add(t, plugin.Descriptor{Name: "first", Dependencies: []string{"curl"}}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "broken", Dependencies: []string{"libmagic"}}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "last"}, scriptedPlugin{})

	_, err := h.manager.Run(context.Background(), []string{"first", "broken", "last"}, nil)
	require.Error(t, err)

	var unsatisfied *UnsatisfiedDependencyError
	require.ErrorAs(t, err, &unsatisfied)
	assert.Equal(t, "broken", unsatisfied.Plugin)
	assert.Equal(t, []string{"libmagic"}, unsatisfied.Missing)

	// Plugins after the failing one never launch; the one before keeps
	// running unaffected.
	require.NoError(t, h.manager.Block(context.Background()))
	assert.Equal(t, []string{"first"}, h.launchOrder())

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	assert.Contains(t, results, "first")
	assert.NotContains(t, results, "broken")
	assert.NotContains(t, results, "last")
}

func TestBlockDrainsJobs(t *testing.T) {
	h := newHarness(t, nil)
	for _, name := range []string{"a", "b", "c"} {
		h.add(t, plugin.Descriptor{Name: name}, scriptedPlugin{})
	}

	_, err := h.manager.Run(context.Background(), []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	assert.False(t, h.manager.Busy())
	assert.Empty(t, h.manager.JobNames())
}

func TestResultsMergePayloadWithInfo(t *testing.T) {
	h := newHarness(t, nil)
	payload := map[string]any{"open_ports": []int{22, 443}}
	info := plugin.Info{
		Description: "Port probe",
		Version:     "1.2.0",
		Priority:    plugin.IntPtr(2),
	}
	h.add(t, plugin.Descriptor{Name: "probe", Info: info}, scriptedPlugin{
		run: func(ctx context.Context) (any, error) { return payload, nil },
	})

	_, err := h.manager.Run(context.Background(), []string{"probe"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	require.Contains(t, results, "probe")

	entry := results["probe"]
	assert.Equal(t, payload, entry.Results)
	assert.Equal(t, "Port probe", entry.Description)
	assert.Equal(t, "1.2.0", entry.Version)
	require.NotNil(t, entry.Priority)
	assert.Equal(t, 2, *entry.Priority)
}

func TestFailedRunRegistersNoResult(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "faulty"}, scriptedPlugin{
		run: func(ctx context.Context) (any, error) { return nil, errors.New("boom") },
	})

	_, err := h.manager.Run(context.Background(), []string{"faulty"}, nil)
	require.NoError(t, err, "in-body failures never propagate to the caller")
	require.NoError(t, h.manager.Block(context.Background()))

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPrepareFailureSkipsRun(t *testing.T) {
	h := newHarness(t, nil)
	ran := false
	h.add(t, plugin.Descriptor{Name: "shy"}, scriptedPlugin{
		prepare: func(ctx context.Context) error { return errors.New("no thanks") },
		run: func(ctx context.Context) (any, error) {
			ran = true
			return nil, nil
		},
	})

	_, err := h.manager.Run(context.Background(), []string{"shy"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	assert.False(t, ran)
}

func TestCleanUpFailureKeepsResult(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "messy"}, scriptedPlugin{
		run:     func(ctx context.Context) (any, error) { return "data", nil },
		cleanup: func(ctx context.Context) error { return errors.New("left a mess") },
	})

	_, err := h.manager.Run(context.Background(), []string{"messy"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	require.Contains(t, results, "messy")
	assert.Equal(t, "data", results["messy"].Results)
}

func TestKillRemovesTrackedJob(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "blocker"}, scriptedPlugin{
		run: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	_, err := h.manager.Run(context.Background(), []string{"blocker"}, nil)
	require.NoError(t, err)
	require.True(t, h.manager.Busy())
	assert.Equal(t, []string{"blocker"}, h.manager.JobNames())

	assert.True(t, h.manager.Kill("blocker"))
	assert.Empty(t, h.manager.JobNames())
	assert.False(t, h.manager.Busy())

	assert.False(t, h.manager.Kill("blocker"))
	assert.False(t, h.manager.Kill("never-existed"))
}

func TestKillDiscardsLateResultAndSkipsCleanUp(t *testing.T) {
	h := newHarness(t, nil)

	release := make(chan struct{})
	cleaned := make(chan struct{}, 1)
	h.add(t, plugin.Descriptor{Name: "stubborn"}, scriptedPlugin{
		run: func(ctx context.Context) (any, error) {
			// Ignores its context on purpose.
			<-release
			return "late-payload", nil
		},
		cleanup: func(ctx context.Context) error {
			cleaned <- struct{}{}
			return nil
		},
	})

	terminal := make(chan ports.Event, 4)
	require.NoError(t, h.bus.Subscribe(context.Background(), ports.TopicPluginEvents, func(ctx context.Context, e ports.Event) error {
		if e.Plugin == "stubborn" && (e.Type == ports.EventTypePluginCompleted || e.Type == ports.EventTypePluginFailed) {
			terminal <- e
		}
		return nil
	}))

	_, err := h.manager.Run(context.Background(), []string{"stubborn"}, nil)
	require.NoError(t, err)
	require.True(t, h.manager.Kill("stubborn"))
	assert.Empty(t, h.manager.JobNames())

	// The body keeps running past the kill point. Once it returns, its
	// execution unit must discard the payload and skip clean-up.
	close(release)

	select {
	case e := <-terminal:
		assert.Equal(t, ports.EventTypePluginFailed, e.Type)
		assert.Equal(t, "killed", e.Data["status"])
	case <-time.After(time.Second):
		t.Fatal("execution unit never finished")
	}

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, results, "stubborn")

	select {
	case <-cleaned:
		t.Fatal("clean-up ran after kill")
	default:
	}
}

func TestDuplicateLiveJobIsSkipped(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "dup"}, scriptedPlugin{
		run: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	_, err := h.manager.Run(context.Background(), []string{"dup"}, nil)
	require.NoError(t, err)
	_, err = h.manager.Run(context.Background(), []string{"dup"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"dup"}, h.manager.JobNames())

	require.True(t, h.manager.Kill("dup"))
	require.NoError(t, h.manager.Block(context.Background()))
}

func TestRunWithNilNamesUsesLoadedSet(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "alpha"}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "beta"}, scriptedPlugin{})
	h.registry.Load(plugin.DefaultPatterns)

	_, err := h.manager.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	assert.ElementsMatch(t, []string{"alpha", "beta"}, h.launchOrder())
}

func TestResetClearsResultsAndLoadedSet(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "alpha"}, scriptedPlugin{})
	h.registry.Load(plugin.DefaultPatterns)

	_, err := h.manager.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, results)

	require.NoError(t, h.manager.Reset(context.Background()))

	results, err = h.manager.Results(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, h.registry.Loaded())
}

func TestResultsSurviveAcrossRuns(t *testing.T) {
	h := newHarness(t, nil)
	h.add(t, plugin.Descriptor{Name: "alpha"}, scriptedPlugin{})
	h.add(t, plugin.Descriptor{Name: "beta"}, scriptedPlugin{})

	_, err := h.manager.Run(context.Background(), []string{"alpha"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	_, err = h.manager.Run(context.Background(), []string{"beta"}, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	results, err := h.manager.Results(context.Background())
	require.NoError(t, err)
	assert.Contains(t, results, "alpha")
	assert.Contains(t, results, "beta")
}

func TestOptionsReachInstances(t *testing.T) {
	h := newHarness(t, nil)
	var got plugin.Options
	err := h.registry.Register(plugin.Descriptor{
		Name: "inspector",
		Options: map[string]plugin.Option{
			"target": {Default: "localhost"},
		},
	}, func(name string, opts plugin.Options) plugin.Instance {
		got = opts
		return &scriptedPlugin{Base: plugin.NewBase(name, opts)}
	})
	require.NoError(t, err)

	_, err = h.manager.Run(context.Background(), []string{"inspector"}, map[string]plugin.Options{
		"inspector": {"target": "10.0.0.1", "surprise": true},
	})
	require.NoError(t, err)
	require.NoError(t, h.manager.Block(context.Background()))

	assert.Equal(t, plugin.Options{"target": "10.0.0.1"}, got)
}
