// Package state owns the canonical in-memory equipment/parameter graph.
// Writes are funneled through the change reconciler (single-writer
// discipline); reads return deep copies so a concurrent reader never
// observes a half-merged record.
package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/telemetry"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// ErrUnknownOwner is returned when a parameter delta references an
// equipment id that is not in the store. The reconciler buffers such
// deltas and retries them after the owning insert arrives.
var ErrUnknownOwner = errors.New("parameter references unknown equipment")

// EquipmentDelta is a partial update to an equipment record. Nil fields
// are absent from the delta and leave the stored value untouched. The
// Parameters slice replaces the stored list only when non-nil.
type EquipmentDelta struct {
	ID         int64
	Name       *string
	Type       *models.EquipmentType
	Status     *models.EquipmentStatus
	IsActive   *bool
	Parameters []models.Parameter
}

// ParameterDelta is a partial update to a parameter record.
type ParameterDelta struct {
	ID            int64
	EquipmentID   int64
	ParameterName *string
	CurrentValue  *float64
	Unit          *string
	MinRange      *float64
	MaxRange      *float64
	MinThreshold  *float64
	MaxThreshold  *float64
	LastUpdated   *time.Time
}

// Store holds the reconciled equipment graph together with the derived
// per-parameter health classification. The classifier runs on every
// mutation, not on read, so a snapshot is always self-consistent.
type Store struct {
	mu        sync.RWMutex
	equipment map[int64]*models.Equipment
	statuses  map[int64]models.ParameterStatus // parameter id -> classification
	degraded  bool
	logger    *zap.Logger
}

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	return &Store{
		equipment: make(map[int64]*models.Equipment),
		statuses:  make(map[int64]models.ParameterStatus),
		logger:    logger,
	}
}

// ReplaceAll installs a snapshot as the new baseline, discarding all
// previous state. Every parameter is (re)classified.
func (s *Store) ReplaceAll(snapshot []models.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.equipment = make(map[int64]*models.Equipment, len(snapshot))
	s.statuses = make(map[int64]models.ParameterStatus)
	for i := range snapshot {
		eq := snapshot[i].Clone()
		s.equipment[eq.ID] = &eq
		for _, p := range eq.Parameters {
			s.classifyLocked(p)
		}
	}
	s.logger.Debug("baseline installed", zap.Int("equipment", len(snapshot)))
}

// UpsertEquipment inserts or merges an equipment record. Fields absent
// from the delta are preserved; the parameter list is replaced only
// when the delta explicitly carries one.
func (s *Store) UpsertEquipment(d EquipmentDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eq, ok := s.equipment[d.ID]
	if !ok {
		eq = &models.Equipment{ID: d.ID}
		s.equipment[d.ID] = eq
	}
	if d.Name != nil {
		eq.Name = *d.Name
	}
	if d.Type != nil {
		eq.Type = *d.Type
	}
	if d.Status != nil {
		eq.Status = *d.Status
	}
	if d.IsActive != nil {
		eq.IsActive = *d.IsActive
	}
	if d.Parameters != nil {
		for _, p := range eq.Parameters {
			delete(s.statuses, p.ID)
		}
		eq.Parameters = make([]models.Parameter, len(d.Parameters))
		copy(eq.Parameters, d.Parameters)
		for i := range eq.Parameters {
			eq.Parameters[i].EquipmentID = eq.ID
			s.classifyLocked(eq.Parameters[i])
		}
	}
}

// RemoveEquipment deletes an equipment record and, by ownership
// cascade, all of its parameters. Reports whether anything was removed.
func (s *Store) RemoveEquipment(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	eq, ok := s.equipment[id]
	if !ok {
		return false
	}
	for _, p := range eq.Parameters {
		delete(s.statuses, p.ID)
	}
	delete(s.equipment, id)
	return true
}

// UpsertParameter merges a parameter delta into its owning equipment's
// list, keyed by parameter id (append if new). Returns ErrUnknownOwner
// when the equipment id is not in the store.
func (s *Store) UpsertParameter(d ParameterDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eq, ok := s.equipment[d.EquipmentID]
	if !ok {
		return ErrUnknownOwner
	}

	idx := -1
	for i := range eq.Parameters {
		if eq.Parameters[i].ID == d.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		eq.Parameters = append(eq.Parameters, models.Parameter{ID: d.ID, EquipmentID: eq.ID})
		idx = len(eq.Parameters) - 1
	}

	p := &eq.Parameters[idx]
	p.EquipmentID = eq.ID // back-reference invariant
	if d.ParameterName != nil {
		p.ParameterName = *d.ParameterName
	}
	if d.CurrentValue != nil {
		p.CurrentValue = *d.CurrentValue
	}
	if d.Unit != nil {
		p.Unit = *d.Unit
	}
	if d.MinRange != nil {
		p.MinRange = *d.MinRange
	}
	if d.MaxRange != nil {
		p.MaxRange = *d.MaxRange
	}
	if d.MinThreshold != nil {
		p.MinThreshold = *d.MinThreshold
	}
	if d.MaxThreshold != nil {
		p.MaxThreshold = *d.MaxThreshold
	}
	if d.LastUpdated != nil {
		p.LastUpdated = *d.LastUpdated
	}

	s.classifyLocked(*p)
	return nil
}

// RemoveParameter removes a parameter from its owner's list. No-op
// (false) when the id is unknown.
func (s *Store) RemoveParameter(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, eq := range s.equipment {
		for i := range eq.Parameters {
			if eq.Parameters[i].ID == id {
				eq.Parameters = append(eq.Parameters[:i], eq.Parameters[i+1:]...)
				delete(s.statuses, id)
				return true
			}
		}
	}
	return false
}

// Equipment returns a deep copy of one equipment record.
func (s *Store) Equipment(id int64) (models.Equipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eq, ok := s.equipment[id]
	if !ok {
		return models.Equipment{}, false
	}
	return eq.Clone(), true
}

// Parameter returns a deep copy of one parameter record.
func (s *Store) Parameter(id int64) (models.Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, eq := range s.equipment {
		for _, p := range eq.Parameters {
			if p.ID == id {
				return p, true
			}
		}
	}
	return models.Parameter{}, false
}

// ParameterStatus returns the stored classification for a parameter.
func (s *Store) ParameterStatus(id int64) (models.ParameterStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[id]
	return st, ok
}

// Len returns the number of equipment records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.equipment)
}

// SetDegraded flags the store as running without a snapshot baseline.
func (s *Store) SetDegraded(degraded bool) {
	s.mu.Lock()
	s.degraded = degraded
	s.mu.Unlock()
}

// Degraded reports whether the store is running without a baseline.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// classifyLocked recomputes the derived status of one parameter and
// logs transitions. Caller holds s.mu.
func (s *Store) classifyLocked(p models.Parameter) {
	next := telemetry.ClassifyParameter(p)
	prev, had := s.statuses[p.ID]
	s.statuses[p.ID] = next
	if had && prev != next {
		s.logger.Info("parameter status changed",
			zap.Int64("parameter_id", p.ID),
			zap.Int64("equipment_id", p.EquipmentID),
			zap.String("from", string(prev)),
			zap.String("to", string(next)),
			zap.Float64("value", p.CurrentValue),
		)
	}
}

// sortedIDs returns equipment ids in ascending order. Caller holds s.mu.
func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.equipment))
	for id := range s.equipment {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
