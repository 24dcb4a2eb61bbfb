// Package feed talks to the upstream PLC data source: a REST surface
// for snapshot/history/alert fetches and a WebSocket change feed for
// incremental deltas. It owns the ingestion boundary: wire records are
// normalized into typed deltas here, and records missing identity
// fields are rejected instead of guessed at.
package feed

import (
	"encoding/json"
	"errors"
	"time"
)

// Error kinds surfaced by this package. Both are recoverable: a timed
// out fetch may be retried on the next refresh cycle, and a malformed
// record is skipped with a degradation signal rather than crashing the
// engine.
var (
	ErrTimeout          = errors.New("upstream request timed out")
	ErrMalformedPayload = errors.New("record missing required identity fields")
)

// EventType discriminates change-feed events.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Table names carried by the change feed.
type Table string

const (
	TableEquipment  Table = "equipment"
	TableParameters Table = "plc_parameters"
)

// ChangeEvent is one incremental delta from the change feed. New is
// populated for INSERT/UPDATE, Old for DELETE. ReceivedAt is stamped on
// arrival and drives replay ordering.
type ChangeEvent struct {
	Type       EventType       `json:"eventType"`
	Table      Table           `json:"table"`
	New        json.RawMessage `json:"new,omitempty"`
	Old        json.RawMessage `json:"old,omitempty"`
	ReceivedAt time.Time       `json:"-"`
}
