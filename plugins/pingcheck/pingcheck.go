// Package pingcheck is an example plugin that probes a host with the
// system ping binary. It declares ping as an external runtime
// dependency, so the dependency gate refuses to launch it on systems
// without one.
package pingcheck

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aescanero/plexo/pkg/plugin"
)

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Name: "pingcheck",
		Info: plugin.Info{
			Description: "Probes a host with ICMP echo requests",
			Version:     "0.1.0",
			Capabilities: []plugin.Capability{
				plugin.CapabilityRun,
			},
		},
		Dependencies: []string{"ping"},
		Options: map[string]plugin.Option{
			"host": {
				Default:     "127.0.0.1",
				Description: "Host to probe",
			},
			"count": {
				Default:     1,
				Description: "Number of echo requests",
			},
		},
	}, New)
}

// Plugin probes a host during its run phase.
type Plugin struct {
	plugin.Base
}

// New creates a pingcheck instance for one run.
func New(name string, opts plugin.Options) plugin.Instance {
	return &Plugin{Base: plugin.NewBase(name, opts)}
}

// Run executes the probe.
func (p *Plugin) Run(ctx context.Context) (any, error) {
	host := p.Options().String("host", "127.0.0.1")
	count := p.Options().Int("count", 1)

	start := time.Now()
	cmd := exec.CommandContext(ctx, "ping", "-c", fmt.Sprintf("%d", count), host)
	output, err := cmd.CombinedOutput()

	result := map[string]any{
		"host":        host,
		"count":       count,
		"reachable":   err == nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		result["error"] = strings.TrimSpace(string(output))
	}

	return result, nil
}
