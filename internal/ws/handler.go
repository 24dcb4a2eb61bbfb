package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/event"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// Handler provides the WebSocket endpoint for real-time updates.
type Handler struct {
	hub    *Hub
	bus    *event.Bus
	logger *zap.Logger
}

// NewHandler creates a WebSocket handler and subscribes to store and
// alert events.
func NewHandler(bus *event.Bus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// Hub exposes the underlying hub for status reporting.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/updates", h.handleUpdates)
}

// handleUpdates upgrades the connection and streams updates until the
// client disconnects.
func (h *Handler) handleUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Dashboards are served from other hosts on the plant network.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:     conn,
		clientID: uuid.NewString(),
		send:     make(chan Message, 256),
		logger:   h.logger,
	}

	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards applied mutations to all connected
// clients.
func (h *Handler) subscribeToEvents() {
	h.bus.Subscribe(event.TopicEquipmentUpdated, func(_ context.Context, e event.Event) {
		eq, ok := e.Payload.(models.Equipment)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageEquipmentUpdated,
			Timestamp: e.Timestamp,
			Data:      EquipmentUpdatedData{Equipment: eq},
		})
	})

	h.bus.Subscribe(event.TopicEquipmentRemoved, func(_ context.Context, e event.Event) {
		id, ok := e.Payload.(int64)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageEquipmentRemoved,
			Timestamp: e.Timestamp,
			Data:      RemovedData{ID: id},
		})
	})

	h.bus.Subscribe(event.TopicParameterUpdated, func(_ context.Context, e event.Event) {
		p, ok := e.Payload.(models.Parameter)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageParameterUpdated,
			Timestamp: e.Timestamp,
			Data:      ParameterUpdatedData{Parameter: p},
		})
	})

	h.bus.Subscribe(event.TopicParameterRemoved, func(_ context.Context, e event.Event) {
		id, ok := e.Payload.(int64)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageParameterRemoved,
			Timestamp: e.Timestamp,
			Data:      RemovedData{ID: id},
		})
	})

	h.bus.Subscribe(event.TopicAlertAcknowledged, func(_ context.Context, e event.Event) {
		id, ok := e.Payload.(int64)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageAlertAcknowledged,
			Timestamp: e.Timestamp,
			Data:      AlertAcknowledgedData{AlertID: id},
		})
	})

	h.bus.Subscribe(event.TopicSnapshotApplied, func(_ context.Context, e event.Event) {
		count, ok := e.Payload.(int)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageSnapshotApplied,
			Timestamp: e.Timestamp,
			Data:      SnapshotAppliedData{EquipmentCount: count},
		})
	})

	h.bus.Subscribe(event.TopicStoreDegraded, func(_ context.Context, e event.Event) {
		degraded, ok := e.Payload.(bool)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageStoreDegraded,
			Timestamp: e.Timestamp,
			Data:      StoreDegradedData{Degraded: degraded},
		})
	})

	h.logger.Info("subscribed to store and alert events for WebSocket broadcasting")
}
