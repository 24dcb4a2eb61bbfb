// Package alerts maintains the local view of upstream alerts and owns
// the acknowledge lifecycle. Acknowledgements apply locally first and
// propagate upstream best-effort, so the operator's action is never
// lost to a flaky link.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/event"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// ErrNotFound is returned when an alert id is unknown.
var ErrNotFound = errors.New("alert not found")

// Fetcher retrieves the upstream alert list.
type Fetcher interface {
	FetchAlerts(ctx context.Context) ([]models.Alert, error)
}

// Acknowledger propagates an acknowledgement upstream.
type Acknowledger interface {
	AcknowledgeAlert(ctx context.Context, alertID int64) error
}

// EquipmentLookup resolves equipment names for alert enrichment.
type EquipmentLookup interface {
	Equipment(id int64) (models.Equipment, bool)
}

// AlertView is an alert enriched with its equipment name for display.
type AlertView struct {
	models.Alert
	EquipmentName string `json:"equipment_name,omitempty"`
}

// Manager holds the current alert set and refreshes it periodically.
type Manager struct {
	fetcher   Fetcher
	acker     Acknowledger
	equipment EquipmentLookup
	bus       *event.Bus
	logger    *zap.Logger

	refreshInterval time.Duration

	mu     sync.RWMutex
	alerts map[int64]models.Alert
}

// New creates an alert manager. refreshInterval <= 0 falls back to 30s.
func New(fetcher Fetcher, acker Acknowledger, equipment EquipmentLookup, bus *event.Bus, refreshInterval time.Duration, logger *zap.Logger) *Manager {
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}
	return &Manager{
		fetcher:         fetcher,
		acker:           acker,
		equipment:       equipment,
		bus:             bus,
		logger:          logger.Named("alerts"),
		refreshInterval: refreshInterval,
		alerts:          make(map[int64]models.Alert),
	}
}

// Run refreshes immediately and then on every tick until ctx is
// cancelled.
func (m *Manager) Run(ctx context.Context) {
	if err := m.Refresh(ctx); err != nil {
		m.logger.Warn("initial alert refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				m.logger.Warn("alert refresh failed", zap.Error(err))
			}
		}
	}
}

// Refresh replaces the alert set with the upstream list. A local
// acknowledgement that has not reached upstream yet survives the
// merge, so refresh never un-acknowledges an alert.
func (m *Manager) Refresh(ctx context.Context) error {
	fetched, err := m.fetcher.FetchAlerts(ctx)
	if err != nil {
		return fmt.Errorf("refresh alerts: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[int64]models.Alert, len(fetched))
	for _, a := range fetched {
		if prev, ok := m.alerts[a.ID]; ok && prev.IsAcknowledged && !a.IsAcknowledged {
			a.IsAcknowledged = true
			a.AcknowledgedAt = prev.AcknowledgedAt
		}
		next[a.ID] = a
	}
	m.alerts = next
	return nil
}

// Acknowledge marks an alert acknowledged. Acknowledging an already
// acknowledged alert is a no-op that preserves the original timestamp.
func (m *Manager) Acknowledge(ctx context.Context, alertID int64) error {
	m.mu.Lock()
	a, ok := m.alerts[alertID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("acknowledge alert %d: %w", alertID, ErrNotFound)
	}
	if a.IsAcknowledged {
		m.mu.Unlock()
		return nil
	}
	now := time.Now()
	a.IsAcknowledged = true
	a.AcknowledgedAt = &now
	m.alerts[alertID] = a
	m.mu.Unlock()

	m.bus.Publish(ctx, event.Event{
		Topic:     event.TopicAlertAcknowledged,
		Source:    "alerts",
		Timestamp: now,
		Payload:   alertID,
	})

	if m.acker != nil {
		if err := m.acker.AcknowledgeAlert(ctx, alertID); err != nil {
			// Local state already reflects the acknowledgement; the
			// next refresh merge keeps it until upstream catches up.
			m.logger.Warn("upstream acknowledge failed",
				zap.Int64("alert_id", alertID),
				zap.Error(err))
		}
	}
	return nil
}

// List returns all alerts newest first, enriched with equipment names.
func (m *Manager) List() []AlertView {
	m.mu.RLock()
	out := make([]AlertView, 0, len(m.alerts))
	for _, a := range m.alerts {
		out = append(out, AlertView{Alert: a})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if m.equipment != nil {
		for i := range out {
			if eq, ok := m.equipment.Equipment(out[i].EquipmentID); ok {
				out[i].EquipmentName = eq.Name
			}
		}
	}
	return out
}

// Get returns one alert by id.
func (m *Manager) Get(alertID int64) (models.Alert, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[alertID]
	return a, ok
}

// Counts tallies the alert set for the filter bar.
func (m *Manager) Counts() models.AlertCounts {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var c models.AlertCounts
	for _, a := range m.alerts {
		c.Total++
		if a.IsAcknowledged {
			c.Acknowledged++
		} else {
			c.Active++
		}
		switch a.AlertType {
		case models.AlertTypeCritical:
			c.Critical++
		case models.AlertTypeWarning:
			c.Warning++
		case models.AlertTypeInfo:
			c.Info++
		case models.AlertTypeStatusChange:
			c.StatusChange++
		}
	}
	return c
}
