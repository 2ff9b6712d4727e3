// Package http provides the HTTP API surface of the orchestrator:
// launching runs, querying and killing jobs, blocking waits, result
// registry access, health and Prometheus metrics.
package http
