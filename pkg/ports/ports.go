package ports

import (
	"context"
	"time"

	"github.com/aescanero/plexo/pkg/plugin"
)

// EventType identifies a plugin lifecycle event.
type EventType string

const (
	EventTypeRunStarted      EventType = "run.started"
	EventTypePluginLaunched  EventType = "plugin.launched"
	EventTypePluginCompleted EventType = "plugin.completed"
	EventTypePluginFailed    EventType = "plugin.failed"
	EventTypePluginKilled    EventType = "plugin.killed"
)

// TopicPluginEvents is the topic all plugin lifecycle events are
// published on.
const TopicPluginEvents = "plugin.events"

// Event is a plugin lifecycle event.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Plugin    string         `json:"plugin,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventHandler processes a single event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers plugin lifecycle events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// ResultStore is the shared result registry: a lock-protected mapping
// from plugin name to its merged result/metadata record. Entries
// survive across orchestration runs until Reset.
type ResultStore interface {
	// Register writes the payload merged with the plugin's static info
	// under name. A registration with an empty name is a silent no-op.
	Register(ctx context.Context, name string, payload any, info plugin.Info) error
	// All returns a snapshot of every registered entry.
	All(ctx context.Context) (map[string]plugin.ResultEntry, error)
	// Count returns the number of registered entries.
	Count(ctx context.Context) (int, error)
	// Reset clears every entry.
	Reset(ctx context.Context) error
}

// Resolver checks whether a single external runtime dependency is
// loadable. Successful resolutions may have process-wide effect and
// must be idempotent.
type Resolver interface {
	Resolve(dependency string) error
}

// MetricsCollector records orchestration metrics.
type MetricsCollector interface {
	RecordPluginLaunched()
	RecordPluginCompleted(status string, duration time.Duration)
	RecordDependencyCheck(result string)
	RecordKill()
	SetActiveJobs(count int)
	SetStoredResults(count int)
}
