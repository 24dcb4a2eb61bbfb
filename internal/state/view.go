package state

import (
	"github.com/dnenndn/monitoringAPP/internal/telemetry"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// ParameterView is a parameter joined with its derived classification
// and range progress, ready for rendering by a UI consumer.
type ParameterView struct {
	models.Parameter
	Status         models.ParameterStatus `json:"status"`
	RangeProgress  float64                `json:"range_progress"`
	ConfigDegraded bool                   `json:"config_degraded,omitempty"`
}

// EquipmentView is an equipment record with parameter views attached.
type EquipmentView struct {
	ID         int64                  `json:"id"`
	Name       string                 `json:"name"`
	Type       models.EquipmentType   `json:"type"`
	Status     models.EquipmentStatus `json:"status"`
	IsActive   bool                   `json:"is_active"`
	Parameters []ParameterView        `json:"parameters"`
}

// Snapshot returns the full reconciled graph with derived per-parameter
// state, ordered by equipment id. The result shares no memory with the
// store.
func (s *Store) Snapshot() []EquipmentView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]EquipmentView, 0, len(s.equipment))
	for _, id := range s.sortedIDs() {
		views = append(views, s.viewLocked(s.equipment[id]))
	}
	return views
}

// View returns one equipment record with derived per-parameter state.
func (s *Store) View(id int64) (EquipmentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eq, ok := s.equipment[id]
	if !ok {
		return EquipmentView{}, false
	}
	return s.viewLocked(eq), true
}

// viewLocked assembles the view of one record. Caller holds s.mu.
func (s *Store) viewLocked(eq *models.Equipment) EquipmentView {
	v := EquipmentView{
		ID:         eq.ID,
		Name:       eq.Name,
		Type:       eq.Type,
		Status:     eq.Status,
		IsActive:   eq.IsActive,
		Parameters: make([]ParameterView, len(eq.Parameters)),
	}
	for i, p := range eq.Parameters {
		status, ok := s.statuses[p.ID]
		if !ok {
			status = telemetry.ClassifyParameter(p)
		}
		progress, degraded := telemetry.RangeProgress(p.CurrentValue, p.MinRange, p.MaxRange)
		v.Parameters[i] = ParameterView{
			Parameter:      p,
			Status:         status,
			RangeProgress:  progress,
			ConfigDegraded: degraded,
		}
	}
	return v
}
