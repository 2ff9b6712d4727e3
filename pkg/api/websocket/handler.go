package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aescanero/plexo/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Handler streams plugin lifecycle events over WebSocket connections.
type Handler struct {
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(eventBus ports.EventBus, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger,
	}
}

// HandleEventStream upgrades the connection and streams plugin events
// to the client. The optional "plugin" query parameter restricts the
// stream to one plugin's events.
func (h *Handler) HandleEventStream(c *gin.Context) {
	pluginFilter := c.Query("plugin")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("plugin_filter", pluginFilter),
		zap.String("client", c.ClientIP()))

	eventChan := make(chan ports.Event, 10)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := h.subscribe(ctx, eventChan); err != nil {
		h.logger.Error("failed to subscribe to events", zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			if pluginFilter != "" && event.Plugin != pluginFilter {
				continue
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

// subscribe routes bus events into the connection's channel.
func (h *Handler) subscribe(ctx context.Context, ch chan<- ports.Event) error {
	handler := func(ctx context.Context, event ports.Event) error {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Channel full, skip event
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}

	return h.eventBus.Subscribe(ctx, ports.TopicPluginEvents, handler)
}
