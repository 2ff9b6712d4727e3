// Package hostinfo is an example plugin that reports basic facts about
// the host the orchestrator runs on.
package hostinfo

import (
	"context"
	"os"
	"runtime"

	"github.com/aescanero/plexo/pkg/plugin"
)

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Name: "hostinfo",
		Info: plugin.Info{
			Description: "Collects hostname, OS and CPU facts",
			Version:     "0.1.0",
			Priority:    plugin.IntPtr(0),
			Capabilities: []plugin.Capability{
				plugin.CapabilityRun,
			},
		},
		Options: map[string]plugin.Option{
			"include_pid": {
				Default:     false,
				Description: "Include the orchestrator process ID in the result",
			},
		},
	}, New)
}

// Plugin collects host facts during its run phase.
type Plugin struct {
	plugin.Base
}

// New creates a hostinfo instance for one run.
func New(name string, opts plugin.Options) plugin.Instance {
	return &Plugin{Base: plugin.NewBase(name, opts)}
}

// Run gathers the host facts.
func (p *Plugin) Run(ctx context.Context) (any, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	facts := map[string]any{
		"hostname": hostname,
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
		"cpus":     runtime.NumCPU(),
	}
	if p.Options().Bool("include_pid", false) {
		facts["pid"] = os.Getpid()
	}

	return facts, nil
}
