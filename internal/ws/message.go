package ws

import (
	"time"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageEquipmentUpdated  MessageType = "equipment.updated"
	MessageEquipmentRemoved  MessageType = "equipment.removed"
	MessageParameterUpdated  MessageType = "parameter.updated"
	MessageParameterRemoved  MessageType = "parameter.removed"
	MessageAlertAcknowledged MessageType = "alert.acknowledged"
	MessageSnapshotApplied   MessageType = "snapshot.applied"
	MessageStoreDegraded     MessageType = "store.degraded"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// EquipmentUpdatedData is the payload for equipment.updated messages.
type EquipmentUpdatedData struct {
	Equipment models.Equipment `json:"equipment"`
}

// ParameterUpdatedData is the payload for parameter.updated messages.
type ParameterUpdatedData struct {
	Parameter models.Parameter `json:"parameter"`
}

// RemovedData is the payload for equipment.removed and
// parameter.removed messages.
type RemovedData struct {
	ID int64 `json:"id"`
}

// AlertAcknowledgedData is the payload for alert.acknowledged messages.
type AlertAcknowledgedData struct {
	AlertID int64 `json:"alert_id"`
}

// SnapshotAppliedData is the payload for snapshot.applied messages.
type SnapshotAppliedData struct {
	EquipmentCount int `json:"equipment_count"`
}

// StoreDegradedData is the payload for store.degraded messages.
type StoreDegradedData struct {
	Degraded bool `json:"degraded"`
}
