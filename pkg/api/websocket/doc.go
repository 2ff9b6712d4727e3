// Package websocket streams plugin lifecycle events to connected
// clients in real time.
package websocket
