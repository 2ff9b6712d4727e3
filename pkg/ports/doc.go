// Package ports defines the interfaces between the orchestration core
// and its adapters: event bus, result storage, dependency resolution
// and metrics collection.
package ports
