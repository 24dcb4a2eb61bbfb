package history

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/event"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// Recorder captures applied parameter updates into the history store
// and prunes rows past the retention period.
type Recorder struct {
	store     *Store
	bus       *event.Bus
	retention time.Duration
	logger    *zap.Logger
}

// NewRecorder creates a recorder. retention <= 0 disables pruning.
func NewRecorder(store *Store, bus *event.Bus, retention time.Duration, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:     store,
		bus:       bus,
		retention: retention,
		logger:    logger.Named("history"),
	}
}

// Run subscribes to parameter updates and prunes on an hourly tick
// until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	unsubscribe := r.bus.Subscribe(event.TopicParameterUpdated, r.record)
	defer unsubscribe()

	var prune <-chan time.Time
	if r.retention > 0 {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		prune = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-prune:
			cutoff := time.Now().Add(-r.retention)
			n, err := r.store.Prune(ctx, cutoff)
			if err != nil {
				r.logger.Warn("history prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Info("pruned history samples",
					zap.Int64("rows", n),
					zap.Time("cutoff", cutoff))
			}
		}
	}
}

func (r *Recorder) record(ctx context.Context, e event.Event) {
	p, ok := e.Payload.(models.Parameter)
	if !ok {
		return
	}
	ts := p.LastUpdated
	if ts.IsZero() {
		ts = e.Timestamp
	}
	sample := models.HistorySample{
		ParameterID: p.ID,
		Timestamp:   ts,
		Value:       p.CurrentValue,
	}
	if err := r.store.InsertSample(ctx, sample); err != nil {
		r.logger.Warn("failed to record sample",
			zap.Int64("parameter_id", p.ID),
			zap.Error(err))
	}
}
