// Package events provides event bus implementations for plugin
// lifecycle events.
//
// Implementations:
//   - memory: in-process handlers, the default backend
//   - redis: Redis Streams with consumer groups
package events
