// Package plugin defines the plugin model of the orchestration core:
// descriptors, runnable instances, option schemas and the in-process
// registry that acts as the component-loader boundary.
//
// Plugin packages register a descriptor and factory at init time:
//
//	func init() {
//	    plugin.MustRegister(plugin.Descriptor{Name: "hostinfo"}, New)
//	}
//
// The orchestrator loads registered plugins by glob pattern, merges
// caller options against each plugin's declared schema, and runs one
// instance per plugin per orchestration run.
package plugin
