// Package reconcile merges the two upstream sources of truth, the full
// REST snapshot and the incremental change feed, into the in-memory
// store without losing changes that arrive while the snapshot fetch is
// in flight. It is the single writer of the store.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/event"
	"github.com/dnenndn/monitoringAPP/internal/feed"
	"github.com/dnenndn/monitoringAPP/internal/state"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// SnapshotFetcher retrieves the full equipment graph.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) ([]models.Equipment, error)
}

// Reconciler drives the buffer-then-replay startup protocol and the
// steady-state apply loop.
type Reconciler struct {
	store   *state.Store
	fetcher SnapshotFetcher
	bus     *event.Bus
	logger  *zap.Logger

	resyncInterval time.Duration

	syncedOnce sync.Once
	synced     chan struct{}
}

// New creates a reconciler. resyncInterval <= 0 disables periodic full
// resyncs.
func New(store *state.Store, fetcher SnapshotFetcher, bus *event.Bus, resyncInterval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:          store,
		fetcher:        fetcher,
		bus:            bus,
		logger:         logger.Named("reconcile"),
		resyncInterval: resyncInterval,
		synced:         make(chan struct{}),
	}
}

// Synced is closed once the startup protocol has finished, whether the
// snapshot landed or the engine fell back to degraded direct-apply.
func (r *Reconciler) Synced() <-chan struct{} {
	return r.synced
}

func (r *Reconciler) markSynced() {
	r.syncedOnce.Do(func() { close(r.synced) })
}

// Run executes the startup protocol and then applies events until ctx
// is cancelled or the events channel closes.
//
// While the snapshot fetch is in flight every incoming event is
// buffered. On success the snapshot replaces the store wholesale and
// the buffer is replayed in arrival order, so a change newer than the
// snapshot always wins. On failure the engine degrades to applying
// events directly against whatever state it has, and recovers on the
// next resync.
func (r *Reconciler) Run(ctx context.Context, events <-chan feed.ChangeEvent) error {
	buffered, ok := r.bootstrap(ctx, events)
	if !ok {
		r.markSynced()
		return ctx.Err()
	}
	r.replay(ctx, buffered)
	r.markSynced()

	var resync <-chan time.Time
	if r.resyncInterval > 0 {
		ticker := time.NewTicker(r.resyncInterval)
		defer ticker.Stop()
		resync = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resync:
			r.refreshSnapshot(ctx)
		case ev, open := <-events:
			if !open {
				return nil
			}
			if err := r.apply(ctx, ev); err != nil {
				r.discard(ev, err)
			}
		}
	}
}

// bootstrap fetches the initial snapshot while buffering incoming
// events. It returns the buffered events and false if ctx was
// cancelled before the fetch resolved.
func (r *Reconciler) bootstrap(ctx context.Context, events <-chan feed.ChangeEvent) ([]feed.ChangeEvent, bool) {
	type fetchResult struct {
		snapshot []models.Equipment
		err      error
	}
	result := make(chan fetchResult, 1)
	go func() {
		snap, err := r.fetcher.FetchSnapshot(ctx)
		result <- fetchResult{snapshot: snap, err: err}
	}()

	var buffered []feed.ChangeEvent
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case ev, open := <-events:
			if !open {
				events = nil
				continue
			}
			buffered = append(buffered, ev)
			eventsBufferedTotal.Inc()
		case res := <-result:
			if res.err != nil {
				snapshotFailuresTotal.Inc()
				r.logger.Error("snapshot fetch failed, entering degraded mode", zap.Error(res.err))
				r.store.SetDegraded(true)
				r.publish(ctx, event.TopicStoreDegraded, true)
				return buffered, true
			}
			r.store.ReplaceAll(res.snapshot)
			r.store.SetDegraded(false)
			r.logger.Info("snapshot applied",
				zap.Int("equipment", len(res.snapshot)),
				zap.Int("buffered_events", len(buffered)))
			r.publish(ctx, event.TopicSnapshotApplied, len(res.snapshot))
			return buffered, true
		}
	}
}

// replay applies buffered events in arrival order. Parameter events
// whose owning equipment is not in the store yet are parked and retried
// once after the first pass, which covers an equipment INSERT buffered
// behind its own parameters. Events still failing after the retry are
// discarded.
func (r *Reconciler) replay(ctx context.Context, buffered []feed.ChangeEvent) {
	var pending []feed.ChangeEvent
	for _, ev := range buffered {
		err := r.apply(ctx, ev)
		if errors.Is(err, state.ErrUnknownOwner) {
			pending = append(pending, ev)
			continue
		}
		if err != nil {
			r.discard(ev, err)
		}
	}

	for _, ev := range pending {
		if err := r.apply(ctx, ev); err != nil {
			r.discard(ev, err)
		}
	}
}

// refreshSnapshot re-fetches the full graph during steady state. This
// heals drift from discarded events and clears degraded mode.
func (r *Reconciler) refreshSnapshot(ctx context.Context) {
	snap, err := r.fetcher.FetchSnapshot(ctx)
	if err != nil {
		snapshotFailuresTotal.Inc()
		r.logger.Warn("periodic snapshot refresh failed", zap.Error(err))
		return
	}
	wasDegraded := r.store.Degraded()
	r.store.ReplaceAll(snap)
	r.store.SetDegraded(false)
	r.publish(ctx, event.TopicSnapshotApplied, len(snap))
	if wasDegraded {
		r.logger.Info("store recovered from degraded mode")
		r.publish(ctx, event.TopicStoreDegraded, false)
	}
}

// apply routes one change event to the store and publishes the
// resulting mutation on the bus.
func (r *Reconciler) apply(ctx context.Context, ev feed.ChangeEvent) error {
	switch ev.Table {
	case feed.TableEquipment:
		return r.applyEquipment(ctx, ev)
	case feed.TableParameters:
		return r.applyParameter(ctx, ev)
	default:
		return fmt.Errorf("unknown table %q", ev.Table)
	}
}

func (r *Reconciler) applyEquipment(ctx context.Context, ev feed.ChangeEvent) error {
	switch ev.Type {
	case feed.EventInsert, feed.EventUpdate:
		d, err := feed.EquipmentDelta(ev.New)
		if err != nil {
			return err
		}
		r.store.UpsertEquipment(d)
		eventsAppliedTotal.WithLabelValues(string(ev.Table), string(ev.Type)).Inc()
		if eq, ok := r.store.Equipment(d.ID); ok {
			r.publish(ctx, event.TopicEquipmentUpdated, eq)
		}
		return nil
	case feed.EventDelete:
		id, err := feed.DeletedID(ev.Old)
		if err != nil {
			return err
		}
		if r.store.RemoveEquipment(id) {
			eventsAppliedTotal.WithLabelValues(string(ev.Table), string(ev.Type)).Inc()
			r.publish(ctx, event.TopicEquipmentRemoved, id)
		}
		return nil
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func (r *Reconciler) applyParameter(ctx context.Context, ev feed.ChangeEvent) error {
	switch ev.Type {
	case feed.EventInsert, feed.EventUpdate:
		d, err := feed.ParameterDelta(ev.New)
		if err != nil {
			return err
		}
		if err := r.store.UpsertParameter(d); err != nil {
			return err
		}
		eventsAppliedTotal.WithLabelValues(string(ev.Table), string(ev.Type)).Inc()
		if p, ok := r.store.Parameter(d.ID); ok {
			r.publish(ctx, event.TopicParameterUpdated, p)
		}
		return nil
	case feed.EventDelete:
		id, err := feed.DeletedID(ev.Old)
		if err != nil {
			return err
		}
		if r.store.RemoveParameter(id) {
			eventsAppliedTotal.WithLabelValues(string(ev.Table), string(ev.Type)).Inc()
			r.publish(ctx, event.TopicParameterRemoved, id)
		}
		return nil
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func (r *Reconciler) discard(ev feed.ChangeEvent, err error) {
	reason := "apply_error"
	switch {
	case errors.Is(err, feed.ErrMalformedPayload):
		reason = "malformed"
	case errors.Is(err, state.ErrUnknownOwner):
		reason = "unknown_owner"
	}
	eventsDiscardedTotal.WithLabelValues(reason).Inc()
	r.logger.Warn("discarding change event",
		zap.String("table", string(ev.Table)),
		zap.String("type", string(ev.Type)),
		zap.String("reason", reason),
		zap.Error(err))
}

func (r *Reconciler) publish(ctx context.Context, topic string, payload any) {
	r.bus.Publish(ctx, event.Event{
		Topic:     topic,
		Source:    "reconcile",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
