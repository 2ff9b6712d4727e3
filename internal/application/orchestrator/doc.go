// Package orchestrator implements the core orchestration logic for
// concurrent plugin execution.
//
// The manager coordinates plugin runs by:
//   - Computing launch order from declared priorities
//   - Gate-checking runtime dependencies via the validator
//   - Launching one execution unit per plugin
//   - Feeding completion into the job and result registries
//
// The validator ensures every declared external runtime dependency is
// loadable before a plugin is launched; the first failure aborts all
// not-yet-launched plugins in the same call.
package orchestrator
