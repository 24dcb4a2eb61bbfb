package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/event"
	"github.com/dnenndn/monitoringAPP/internal/feed"
	"github.com/dnenndn/monitoringAPP/internal/state"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// gatedFetcher blocks FetchSnapshot until release is closed, letting
// tests buffer events behind an in-flight snapshot.
type gatedFetcher struct {
	snapshot []models.Equipment
	err      error
	release  chan struct{}
}

func (f *gatedFetcher) FetchSnapshot(ctx context.Context) ([]models.Equipment, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.snapshot, f.err
}

func newTestReconciler(t *testing.T, fetcher SnapshotFetcher) (*Reconciler, *state.Store, *event.Bus) {
	t.Helper()
	logger := zap.NewNop()
	store := state.New(logger)
	bus := event.NewBus(logger)
	return New(store, fetcher, bus, 0, logger), store, bus
}

func waitSynced(t *testing.T, r *Reconciler) {
	t.Helper()
	select {
	case <-r.Synced():
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not finish startup sync")
	}
}

func equipmentUpdate(id int64, status string) feed.ChangeEvent {
	return feed.ChangeEvent{
		Type:       feed.EventUpdate,
		Table:      feed.TableEquipment,
		New:        json.RawMessage(fmt.Sprintf(`{"id": %d, "status": %q}`, id, status)),
		ReceivedAt: time.Now(),
	}
}

func TestBufferedEventWinsOverSnapshot(t *testing.T) {
	fetcher := &gatedFetcher{
		snapshot: []models.Equipment{{ID: 1, Name: "Kiln 1", Type: models.EquipmentTypeKiln, Status: models.EquipmentStatusIdle}},
		release:  make(chan struct{}),
	}
	rec, store, _ := newTestReconciler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan feed.ChangeEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec.Run(ctx, events)
	}()

	// The update lands while the snapshot fetch is still in flight. The
	// unbuffered send guarantees the reconciler has buffered it before
	// the snapshot is released.
	events <- equipmentUpdate(1, "firing")
	close(fetcher.release)

	waitSynced(t, rec)

	eq, ok := store.Equipment(1)
	if !ok {
		t.Fatal("equipment 1 missing after sync")
	}
	if eq.Status != models.EquipmentStatusFiring {
		t.Errorf("Status = %q, want firing (buffered update must override snapshot baseline)", eq.Status)
	}

	cancel()
	<-done
}

func TestReplayRetriesOrphanedParameter(t *testing.T) {
	fetcher := &gatedFetcher{release: make(chan struct{})}
	rec, store, _ := newTestReconciler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan feed.ChangeEvent)
	go rec.Run(ctx, events)

	// The parameter insert is buffered ahead of its owning equipment.
	// The first replay pass parks it, the retry pass applies it.
	events <- feed.ChangeEvent{
		Type:  feed.EventInsert,
		Table: feed.TableParameters,
		New:   json.RawMessage(`{"id": 10, "equipment_id": 99, "parameter_name": "temperature", "current_value": 950}`),
	}
	events <- feed.ChangeEvent{
		Type:  feed.EventInsert,
		Table: feed.TableEquipment,
		New:   json.RawMessage(`{"id": 99, "name": "Kiln 9", "type": "kiln", "status": "firing"}`),
	}
	close(fetcher.release)

	waitSynced(t, rec)

	p, ok := store.Parameter(10)
	if !ok {
		t.Fatal("parameter 10 missing, retry pass did not apply it")
	}
	if p.EquipmentID != 99 || p.CurrentValue != 950 {
		t.Errorf("parameter = %+v, want owner 99 value 950", p)
	}
}

func TestReplayDiscardsUnresolvableParameter(t *testing.T) {
	fetcher := &gatedFetcher{release: make(chan struct{})}
	rec, store, _ := newTestReconciler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan feed.ChangeEvent)
	go rec.Run(ctx, events)

	events <- feed.ChangeEvent{
		Type:  feed.EventInsert,
		Table: feed.TableParameters,
		New:   json.RawMessage(`{"id": 10, "equipment_id": 77, "current_value": 950}`),
	}
	close(fetcher.release)

	waitSynced(t, rec)

	if _, ok := store.Parameter(10); ok {
		t.Error("parameter 10 applied, want discarded after retry pass")
	}
	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0", store.Len())
	}
}

func TestSnapshotFailureDegradesToDirectApply(t *testing.T) {
	fetcher := &gatedFetcher{err: errors.New("upstream down")}
	rec, store, bus := newTestReconciler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan struct{}, 1)
	bus.Subscribe(event.TopicEquipmentUpdated, func(ctx context.Context, e event.Event) {
		applied <- struct{}{}
	})

	events := make(chan feed.ChangeEvent)
	go rec.Run(ctx, events)

	waitSynced(t, rec)

	if !store.Degraded() {
		t.Error("Degraded() = false after snapshot failure, want true")
	}

	// Direct-apply mode still processes incoming events.
	events <- feed.ChangeEvent{
		Type:  feed.EventInsert,
		Table: feed.TableEquipment,
		New:   json.RawMessage(`{"id": 5, "name": "Dryer 1", "type": "dryer", "status": "drying"}`),
	}

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("equipment insert was not applied in degraded mode")
	}

	if _, ok := store.Equipment(5); !ok {
		t.Error("equipment 5 missing after degraded direct apply")
	}
}

func TestMalformedEventSkippedStreamContinues(t *testing.T) {
	fetcher := &gatedFetcher{}
	rec, store, bus := newTestReconciler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	applied := make(chan struct{}, 1)
	bus.Subscribe(event.TopicEquipmentUpdated, func(ctx context.Context, e event.Event) {
		applied <- struct{}{}
	})

	events := make(chan feed.ChangeEvent)
	go rec.Run(ctx, events)
	waitSynced(t, rec)

	events <- feed.ChangeEvent{
		Type:  feed.EventUpdate,
		Table: feed.TableEquipment,
		New:   json.RawMessage(`{"status": "firing"}`),
	}
	events <- feed.ChangeEvent{
		Type:  feed.EventInsert,
		Table: feed.TableEquipment,
		New:   json.RawMessage(`{"id": 2, "name": "Kiln 2", "type": "kiln", "status": "standby"}`),
	}

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("valid event after malformed one was not applied")
	}

	if store.Len() != 1 {
		t.Errorf("store len = %d, want 1 (malformed event must not create state)", store.Len())
	}
}

func TestDeleteEventsCascade(t *testing.T) {
	fetcher := &gatedFetcher{
		snapshot: []models.Equipment{{
			ID: 1, Name: "Kiln 1", Type: models.EquipmentTypeKiln, Status: models.EquipmentStatusFiring,
			Parameters: []models.Parameter{{ID: 10, EquipmentID: 1, ParameterName: "temperature", CurrentValue: 950}},
		}},
	}
	rec, store, bus := newTestReconciler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	removed := make(chan struct{}, 1)
	bus.Subscribe(event.TopicEquipmentRemoved, func(ctx context.Context, e event.Event) {
		removed <- struct{}{}
	})

	events := make(chan feed.ChangeEvent)
	go rec.Run(ctx, events)
	waitSynced(t, rec)

	events <- feed.ChangeEvent{
		Type:  feed.EventDelete,
		Table: feed.TableEquipment,
		Old:   json.RawMessage(`{"id": 1}`),
	}

	select {
	case <-removed:
	case <-time.After(2 * time.Second):
		t.Fatal("delete event was not applied")
	}

	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0", store.Len())
	}
	if _, ok := store.Parameter(10); ok {
		t.Error("parameter 10 survived equipment delete, want cascade removal")
	}
}
