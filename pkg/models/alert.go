package models

import "time"

// AlertType classifies the severity or kind of an alert.
type AlertType string

const (
	AlertTypeCritical     AlertType = "critical"
	AlertTypeWarning      AlertType = "warning"
	AlertTypeInfo         AlertType = "info"
	AlertTypeStatusChange AlertType = "status_change"
)

// Alert is a threshold-violation or status-change notification produced
// upstream. Acknowledgment is one-way: once acknowledged, AcknowledgedAt
// is set exactly once and never rewritten.
type Alert struct {
	ID             int64      `json:"id" example:"42"`
	EquipmentID    int64      `json:"equipment_id" example:"1"`
	ParameterName  string     `json:"parameter_name,omitempty" example:"Chamber Temperature"`
	AlertType      AlertType  `json:"alert_type" example:"critical"`
	Title          string     `json:"title" example:"Temperature above threshold"`
	Message        string     `json:"message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	IsAcknowledged bool       `json:"is_acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// AlertCounts are derived alert tallies, always computed on read.
type AlertCounts struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Acknowledged int `json:"acknowledged"`
	Critical     int `json:"critical"`
	Warning      int `json:"warning"`
	Info         int `json:"info"`
	StatusChange int `json:"status_change"`
}
