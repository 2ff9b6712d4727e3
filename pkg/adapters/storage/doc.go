// Package storage provides result store implementations.
//
// Implementations:
//   - memory: mutex-guarded map, the default backend
//   - redis: Redis hash with JSON serialization, survives restarts
package storage
