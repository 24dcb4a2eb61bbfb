package event

// Topics published across the engine. Payload types are noted per
// topic; subscribers must type-assert.
const (
	// TopicEquipmentUpdated carries a models.Equipment after an insert
	// or update has been applied to the store.
	TopicEquipmentUpdated = "state.equipment.updated"

	// TopicEquipmentRemoved carries the removed equipment id (int64).
	TopicEquipmentRemoved = "state.equipment.removed"

	// TopicParameterUpdated carries a models.Parameter after an insert
	// or update has been applied to the store.
	TopicParameterUpdated = "state.parameter.updated"

	// TopicParameterRemoved carries the removed parameter id (int64).
	TopicParameterRemoved = "state.parameter.removed"

	// TopicSnapshotApplied carries the equipment count (int) after a
	// full snapshot replaced the store contents.
	TopicSnapshotApplied = "state.snapshot.applied"

	// TopicStoreDegraded carries the degraded flag (bool).
	TopicStoreDegraded = "state.store.degraded"

	// TopicAlertAcknowledged carries the acknowledged alert id (int64).
	TopicAlertAcknowledged = "alerts.acknowledged"
)
