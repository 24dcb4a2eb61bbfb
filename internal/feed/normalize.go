package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dnenndn/monitoringAPP/internal/state"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// equipmentRecord is the wire shape of an equipment row. All fields
// except the id are pointers so a partial update can be told apart from
// an explicit zero value.
type equipmentRecord struct {
	ID         *int64                  `json:"id"`
	Name       *string                 `json:"name"`
	Type       *models.EquipmentType   `json:"type"`
	Status     *models.EquipmentStatus `json:"status"`
	IsActive   *bool                   `json:"is_active"`
	Parameters []parameterRecord       `json:"plc_parameters"`
}

// parameterRecord is the wire shape of a plc_parameters row.
type parameterRecord struct {
	ID            *int64     `json:"id"`
	EquipmentID   *int64     `json:"equipment_id"`
	ParameterName *string    `json:"parameter_name"`
	CurrentValue  *float64   `json:"current_value"`
	Unit          *string    `json:"unit"`
	MinRange      *float64   `json:"min_range"`
	MaxRange      *float64   `json:"max_range"`
	MinThreshold  *float64   `json:"min_threshold"`
	MaxThreshold  *float64   `json:"max_threshold"`
	LastUpdated   *time.Time `json:"last_updated"`
}

// EquipmentDelta decodes an equipment change payload into a store
// delta. A payload without an id is unusable and yields
// ErrMalformedPayload.
func EquipmentDelta(raw json.RawMessage) (state.EquipmentDelta, error) {
	var rec equipmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return state.EquipmentDelta{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return rec.toDelta()
}

func (r equipmentRecord) toDelta() (state.EquipmentDelta, error) {
	if r.ID == nil {
		return state.EquipmentDelta{}, fmt.Errorf("%w: equipment record has no id", ErrMalformedPayload)
	}
	d := state.EquipmentDelta{
		ID:       *r.ID,
		Name:     r.Name,
		Type:     r.Type,
		Status:   r.Status,
		IsActive: r.IsActive,
	}
	if r.Parameters != nil {
		params := make([]models.Parameter, 0, len(r.Parameters))
		for _, pr := range r.Parameters {
			p, err := pr.toModel(*r.ID)
			if err != nil {
				return state.EquipmentDelta{}, err
			}
			params = append(params, p)
		}
		d.Parameters = params
	}
	return d, nil
}

// ParameterDelta decodes a plc_parameters change payload into a store
// delta. The id and the owning equipment id are both required.
func ParameterDelta(raw json.RawMessage) (state.ParameterDelta, error) {
	var rec parameterRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return state.ParameterDelta{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if rec.ID == nil {
		return state.ParameterDelta{}, fmt.Errorf("%w: parameter record has no id", ErrMalformedPayload)
	}
	if rec.EquipmentID == nil {
		return state.ParameterDelta{}, fmt.Errorf("%w: parameter %d has no equipment_id", ErrMalformedPayload, *rec.ID)
	}
	return state.ParameterDelta{
		ID:            *rec.ID,
		EquipmentID:   *rec.EquipmentID,
		ParameterName: rec.ParameterName,
		CurrentValue:  rec.CurrentValue,
		Unit:          rec.Unit,
		MinRange:      rec.MinRange,
		MaxRange:      rec.MaxRange,
		MinThreshold:  rec.MinThreshold,
		MaxThreshold:  rec.MaxThreshold,
		LastUpdated:   rec.LastUpdated,
	}, nil
}

// DeletedID extracts the row id from a DELETE payload, which carries
// only the old row.
func DeletedID(raw json.RawMessage) (int64, error) {
	var rec struct {
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if rec.ID == nil {
		return 0, fmt.Errorf("%w: delete record has no id", ErrMalformedPayload)
	}
	return *rec.ID, nil
}

// toModel hydrates a full parameter from a snapshot record. Snapshot
// rows are complete, so missing numeric fields default to zero, but the
// identity fields are still required.
func (r parameterRecord) toModel(ownerID int64) (models.Parameter, error) {
	if r.ID == nil {
		return models.Parameter{}, fmt.Errorf("%w: parameter record has no id", ErrMalformedPayload)
	}
	p := models.Parameter{ID: *r.ID, EquipmentID: ownerID}
	if r.EquipmentID != nil {
		p.EquipmentID = *r.EquipmentID
	}
	if r.ParameterName != nil {
		p.ParameterName = *r.ParameterName
	}
	if r.CurrentValue != nil {
		p.CurrentValue = *r.CurrentValue
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.MinRange != nil {
		p.MinRange = *r.MinRange
	}
	if r.MaxRange != nil {
		p.MaxRange = *r.MaxRange
	}
	if r.MinThreshold != nil {
		p.MinThreshold = *r.MinThreshold
	}
	if r.MaxThreshold != nil {
		p.MaxThreshold = *r.MaxThreshold
	}
	if r.LastUpdated != nil {
		p.LastUpdated = *r.LastUpdated
	}
	return p, nil
}
