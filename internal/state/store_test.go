package state

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

func strPtr(s string) *string                          { return &s }
func f64Ptr(f float64) *float64                        { return &f }
func boolPtr(b bool) *bool                             { return &b }
func statusPtr(s models.EquipmentStatus) *models.EquipmentStatus { return &s }
func typePtr(t models.EquipmentType) *models.EquipmentType       { return &t }

func kiln1() models.Equipment {
	return models.Equipment{
		ID:       1,
		Name:     "Kiln 1",
		Type:     models.EquipmentTypeKiln,
		Status:   models.EquipmentStatusIdle,
		IsActive: true,
		Parameters: []models.Parameter{
			{
				ID: 10, EquipmentID: 1, ParameterName: "Chamber Temperature",
				CurrentValue: 950, Unit: "°C",
				MinRange: 0, MaxRange: 1400, MinThreshold: 900, MaxThreshold: 1000,
				LastUpdated: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestUpsertEquipment_InsertThenPartialUpdate(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	// An UPDATE delta carrying only {id, status} must leave the
	// parameter list untouched.
	s.UpsertEquipment(EquipmentDelta{ID: 1, Status: statusPtr(models.EquipmentStatusFiring)})

	eq, ok := s.Equipment(1)
	if !ok {
		t.Fatal("equipment 1 missing")
	}
	if eq.Status != models.EquipmentStatusFiring {
		t.Errorf("Status = %q, want firing", eq.Status)
	}
	if eq.Name != "Kiln 1" {
		t.Errorf("Name = %q, want preserved", eq.Name)
	}
	if len(eq.Parameters) != 1 || eq.Parameters[0].ID != 10 {
		t.Errorf("Parameters = %v, want the original single parameter", eq.Parameters)
	}
}

func TestUpsertEquipment_UnknownIDInserts(t *testing.T) {
	s := New(zap.NewNop())
	s.UpsertEquipment(EquipmentDelta{
		ID:   7,
		Name: strPtr("Dryer 2"),
		Type: typePtr(models.EquipmentTypeDryer),
	})

	eq, ok := s.Equipment(7)
	if !ok {
		t.Fatal("equipment 7 missing after insert")
	}
	if eq.Name != "Dryer 2" || eq.Type != models.EquipmentTypeDryer {
		t.Errorf("got %+v", eq)
	}
	if eq.IsActive {
		t.Error("IsActive should default to false when absent from the delta")
	}
}

func TestRemoveEquipment_CascadesParameters(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	if !s.RemoveEquipment(1) {
		t.Fatal("RemoveEquipment(1) = false, want true")
	}
	if _, ok := s.Equipment(1); ok {
		t.Error("equipment 1 still present")
	}
	if _, ok := s.Parameter(10); ok {
		t.Error("parameter 10 survived its owner")
	}
	if _, ok := s.ParameterStatus(10); ok {
		t.Error("derived status for parameter 10 survived its owner")
	}
	if s.RemoveEquipment(1) {
		t.Error("second RemoveEquipment(1) = true, want false")
	}
}

func TestUpsertParameter_MergeAndAppend(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	// Merge into the existing parameter: only the value changes.
	if err := s.UpsertParameter(ParameterDelta{
		ID: 10, EquipmentID: 1, CurrentValue: f64Ptr(1050),
	}); err != nil {
		t.Fatalf("UpsertParameter: %v", err)
	}
	p, ok := s.Parameter(10)
	if !ok {
		t.Fatal("parameter 10 missing")
	}
	if p.CurrentValue != 1050 {
		t.Errorf("CurrentValue = %v, want 1050", p.CurrentValue)
	}
	if p.ParameterName != "Chamber Temperature" || p.Unit != "°C" {
		t.Errorf("fields absent from the delta were not preserved: %+v", p)
	}

	// Append a new parameter to the same owner.
	if err := s.UpsertParameter(ParameterDelta{
		ID: 11, EquipmentID: 1,
		ParameterName: strPtr("Humidity"), CurrentValue: f64Ptr(40),
	}); err != nil {
		t.Fatalf("UpsertParameter (append): %v", err)
	}
	eq, _ := s.Equipment(1)
	if len(eq.Parameters) != 2 {
		t.Fatalf("Parameters = %d, want 2", len(eq.Parameters))
	}
	if eq.Parameters[1].EquipmentID != 1 {
		t.Error("back-reference not set on appended parameter")
	}
}

func TestUpsertParameter_UnknownOwner(t *testing.T) {
	s := New(zap.NewNop())
	err := s.UpsertParameter(ParameterDelta{ID: 99, EquipmentID: 404})
	if err != ErrUnknownOwner {
		t.Errorf("err = %v, want ErrUnknownOwner", err)
	}
}

func TestRemoveParameter(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	if !s.RemoveParameter(10) {
		t.Error("RemoveParameter(10) = false, want true")
	}
	if s.RemoveParameter(10) {
		t.Error("RemoveParameter(10) repeated = true, want no-op false")
	}
	eq, _ := s.Equipment(1)
	if len(eq.Parameters) != 0 {
		t.Errorf("Parameters = %v, want empty", eq.Parameters)
	}
}

func TestClassificationRecomputedOnMutation(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	if st, _ := s.ParameterStatus(10); st != models.ParameterStatusNormal {
		t.Errorf("initial status = %q, want normal", st)
	}

	if err := s.UpsertParameter(ParameterDelta{ID: 10, EquipmentID: 1, CurrentValue: f64Ptr(905)}); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.ParameterStatus(10); st != models.ParameterStatusWarning {
		t.Errorf("status after 905 = %q, want warning", st)
	}

	if err := s.UpsertParameter(ParameterDelta{ID: 10, EquipmentID: 1, CurrentValue: f64Ptr(1050)}); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.ParameterStatus(10); st != models.ParameterStatusCritical {
		t.Errorf("status after 1050 = %q, want critical", st)
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	views := s.Snapshot()
	if len(views) != 1 {
		t.Fatalf("Snapshot len = %d, want 1", len(views))
	}
	views[0].Parameters[0].CurrentValue = -1
	views[0].Name = "mutated"

	eq, _ := s.Equipment(1)
	if eq.Name != "Kiln 1" || eq.Parameters[0].CurrentValue != 950 {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestSnapshot_OrderedAndDerived(t *testing.T) {
	s := New(zap.NewNop())
	d2 := models.Equipment{ID: 2, Name: "Dryer 1", Type: models.EquipmentTypeDryer}
	s.ReplaceAll([]models.Equipment{d2, kiln1()})

	views := s.Snapshot()
	if len(views) != 2 || views[0].ID != 1 || views[1].ID != 2 {
		t.Fatalf("Snapshot order = %v, want ids 1,2", views)
	}
	pv := views[0].Parameters[0]
	if pv.Status != models.ParameterStatusNormal {
		t.Errorf("derived status = %q, want normal", pv.Status)
	}
	// 950 of 0..1400 is ~67.86%.
	if pv.RangeProgress < 67 || pv.RangeProgress > 68 {
		t.Errorf("RangeProgress = %v, want ~67.86", pv.RangeProgress)
	}
}

func TestDegradedFlag(t *testing.T) {
	s := New(zap.NewNop())
	if s.Degraded() {
		t.Error("new store should not be degraded")
	}
	s.SetDegraded(true)
	if !s.Degraded() {
		t.Error("degraded flag not set")
	}
}

func TestUpsertEquipment_DeltaWithParametersReplacesList(t *testing.T) {
	s := New(zap.NewNop())
	s.ReplaceAll([]models.Equipment{kiln1()})

	s.UpsertEquipment(EquipmentDelta{
		ID: 1,
		Parameters: []models.Parameter{
			{ID: 20, ParameterName: "Pressure", CurrentValue: 2.5, MinThreshold: 1, MaxThreshold: 4},
		},
	})

	eq, _ := s.Equipment(1)
	if len(eq.Parameters) != 1 || eq.Parameters[0].ID != 20 {
		t.Fatalf("Parameters = %v, want replaced list with id 20", eq.Parameters)
	}
	if _, ok := s.ParameterStatus(10); ok {
		t.Error("status of replaced parameter 10 should be evicted")
	}
	if st, _ := s.ParameterStatus(20); st != models.ParameterStatusNormal {
		t.Errorf("status of parameter 20 = %q, want normal", st)
	}
	if eq.Parameters[0].EquipmentID != 1 {
		t.Error("back-reference not stamped on replacement list")
	}
}
