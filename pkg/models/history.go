package models

import "time"

// HistorySample is one recorded value of a parameter. Samples are
// immutable once recorded and ordered by timestamp ascending; the
// series may contain gaps.
type HistorySample struct {
	ParameterID int64     `json:"parameter_id" example:"10"`
	Timestamp   time.Time `json:"timestamp"`
	Value       float64   `json:"value" example:"948.5"`
}
