package models

import "time"

// EquipmentType categorizes a piece of monitored equipment.
type EquipmentType string

const (
	EquipmentTypeKiln  EquipmentType = "kiln"
	EquipmentTypeDryer EquipmentType = "dryer"
)

// EquipmentStatus represents the current operating state of equipment.
type EquipmentStatus string

const (
	EquipmentStatusFiring  EquipmentStatus = "firing"
	EquipmentStatusDrying  EquipmentStatus = "drying"
	EquipmentStatusStandby EquipmentStatus = "standby"
	EquipmentStatusIdle    EquipmentStatus = "idle"
	EquipmentStatusOffline EquipmentStatus = "offline"
)

// ParameterStatus is the health classification of a process parameter
// against its configured threshold envelope.
type ParameterStatus string

const (
	ParameterStatusNormal   ParameterStatus = "normal"
	ParameterStatusWarning  ParameterStatus = "warning"
	ParameterStatusCritical ParameterStatus = "critical"
)

// TrendDirection is the direction of a parameter's recent movement.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
	TrendNoData  TrendDirection = "no_data"
)

// Parameter is a single PLC process parameter (temperature, humidity,
// pressure, ...) belonging to one piece of equipment. EquipmentID is a
// back-reference and must always equal the owning Equipment's ID.
type Parameter struct {
	ID            int64     `json:"id" example:"10"`
	EquipmentID   int64     `json:"equipment_id" example:"1"`
	ParameterName string    `json:"parameter_name" example:"Chamber Temperature"`
	CurrentValue  float64   `json:"current_value" example:"950"`
	Unit          string    `json:"unit,omitempty" example:"°C"`
	MinRange      float64   `json:"min_range" example:"0"`
	MaxRange      float64   `json:"max_range" example:"1400"`
	MinThreshold  float64   `json:"min_threshold" example:"900"`
	MaxThreshold  float64   `json:"max_threshold" example:"1000"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Equipment is a monitored kiln or dryer with its parameter list.
// Parameters are owned by the equipment; their lifetime is bounded by it.
type Equipment struct {
	ID         int64           `json:"id" example:"1"`
	Name       string          `json:"name" example:"Kiln 1"`
	Type       EquipmentType   `json:"type" example:"kiln"`
	Status     EquipmentStatus `json:"status" example:"firing"`
	IsActive   bool            `json:"is_active"`
	Parameters []Parameter     `json:"plc_parameters"`
}

// Clone returns a deep copy of the equipment record.
func (e Equipment) Clone() Equipment {
	out := e
	if e.Parameters != nil {
		out.Parameters = make([]Parameter, len(e.Parameters))
		copy(out.Parameters, e.Parameters)
	}
	return out
}

// SystemStatus describes the engine's connectivity to the upstream
// PLC data source.
type SystemStatus struct {
	IsConnected   bool      `json:"is_connected"`
	OfflineMode   bool      `json:"offline_mode"`
	StoreDegraded bool      `json:"store_degraded"`
	LastChecked   time.Time `json:"last_checked"`
}
