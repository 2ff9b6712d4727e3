// Package jobs tracks in-flight plugin execution units.
//
// The registry supports lookup by name, liveness polling, forced
// termination and blocking wait. It is mutated only by the
// orchestrator's own control flow; plugin bodies never touch it.
package jobs
