package plugin

import "context"

// Capability identifies a life-cycle hook a plugin implements meaningfully.
type Capability string

const (
	CapabilityPrepare Capability = "prepare"
	CapabilityRun     Capability = "run"
	CapabilityCleanUp Capability = "clean_up"
)

// Info holds the static metadata a plugin declares about itself.
// It is merged into the plugin's result entry on registration.
type Info struct {
	Description  string       `json:"description,omitempty"`
	Version      string       `json:"version,omitempty"`
	Author       string       `json:"author,omitempty"`
	Priority     *int         `json:"priority,omitempty"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// Prioritized reports whether the plugin declared an explicit launch priority.
func (i Info) Prioritized() bool {
	return i.Priority != nil
}

// Option describes one entry in a plugin's declared option schema.
type Option struct {
	Default     any    `json:"default"`
	Description string `json:"description,omitempty"`
}

// Options is the effective option set handed to a plugin instance.
type Options map[string]any

// Descriptor describes a registered plugin: its identity, metadata,
// external runtime dependencies and declared option schema.
// Descriptors are treated as read-only by the orchestration core.
type Descriptor struct {
	Name         string            `json:"name"`
	Info         Info              `json:"info"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Options      map[string]Option `json:"options,omitempty"`
}

// Instance is a runnable plugin. Instances are created once per
// orchestration run, owned exclusively by the execution unit that runs
// them, and discarded after completion.
//
// The originating plugin name is carried by the instance itself so the
// core never has to reverse-map an instance to its name by type.
type Instance interface {
	Name() string
	Prepare(ctx context.Context) error
	Run(ctx context.Context) (any, error)
	CleanUp(ctx context.Context) error
}

// Factory builds a plugin instance for one run. opts is the effective
// option set after schema merging.
type Factory func(name string, opts Options) Instance

// ResultEntry is the record stored per plugin name in the result store:
// the payload produced by the plugin's run phase merged with its static
// metadata.
type ResultEntry struct {
	Results any `json:"results"`
	Info
}

// Base provides the name/option plumbing and no-op Prepare/CleanUp
// hooks; concrete plugins embed it and implement Run.
type Base struct {
	name string
	opts Options
}

// NewBase creates the embeddable base for a plugin instance.
func NewBase(name string, opts Options) Base {
	return Base{name: name, opts: opts}
}

// Name returns the plugin name the instance was created for.
func (b Base) Name() string { return b.name }

// Options returns the effective options for this run.
func (b Base) Options() Options { return b.opts }

// Prepare is a no-op by default.
func (b Base) Prepare(ctx context.Context) error { return nil }

// CleanUp is a no-op by default.
func (b Base) CleanUp(ctx context.Context) error { return nil }

// IntPtr is a convenience for declaring descriptor priorities.
func IntPtr(v int) *int { return &v }
