package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/internal/alerts"
	"github.com/dnenndn/monitoringAPP/internal/feed"
	"github.com/dnenndn/monitoringAPP/internal/state"
	"github.com/dnenndn/monitoringAPP/internal/telemetry"
	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// trendSampleCount is how many recent samples the trend comparison
// needs (two windows of five).
const trendSampleCount = 10

// StateSource is the read surface of the equipment store.
type StateSource interface {
	Snapshot() []state.EquipmentView
	View(id int64) (state.EquipmentView, bool)
	Parameter(id int64) (models.Parameter, bool)
	Degraded() bool
}

// AlertService is the alert lifecycle surface.
type AlertService interface {
	List() []alerts.AlertView
	Counts() models.AlertCounts
	Acknowledge(ctx context.Context, alertID int64) error
}

// HistorySource reads locally retained samples. Nil disables the local
// path and every history query goes upstream.
type HistorySource interface {
	Window(ctx context.Context, parameterID int64, periodHours float64, now time.Time) ([]models.HistorySample, error)
	Latest(ctx context.Context, parameterID int64, count int) ([]models.HistorySample, error)
}

// RemoteHistory fetches samples from the upstream REST surface.
type RemoteHistory interface {
	FetchHistory(ctx context.Context, parameterID int64, since time.Time) ([]models.HistorySample, error)
}

// ConnectionSource reports whether the change feed link is live.
type ConnectionSource interface {
	Connected() bool
}

// GatewayProbe reports the last connectivity probe verdict.
type GatewayProbe interface {
	Reachable() (bool, time.Time)
}

// APIHandler serves the versioned monitoring API.
type APIHandler struct {
	state   StateSource
	alerts  AlertService
	history HistorySource
	remote  RemoteHistory
	conn    ConnectionSource
	probe   GatewayProbe
	logger  *zap.Logger
}

// NewAPIHandler wires the API surface. history, conn, and probe may be
// nil when the corresponding subsystem is disabled.
func NewAPIHandler(st StateSource, al AlertService, hist HistorySource, remote RemoteHistory, conn ConnectionSource, probe GatewayProbe, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		state:   st,
		alerts:  al,
		history: hist,
		remote:  remote,
		conn:    conn,
		probe:   probe,
		logger:  logger,
	}
}

// RegisterRoutes registers the API routes on the server mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/equipment", h.handleListEquipment)
	mux.HandleFunc("GET /api/v1/equipment/{id}", h.handleGetEquipment)
	mux.HandleFunc("GET /api/v1/parameters/{id}/history", h.handleParameterHistory)
	mux.HandleFunc("GET /api/v1/parameters/{id}/trend", h.handleParameterTrend)
	mux.HandleFunc("GET /api/v1/periods", h.handlePeriods)
	mux.HandleFunc("GET /api/v1/alerts", h.handleListAlerts)
	mux.HandleFunc("POST /api/v1/alerts/{id}/acknowledge", h.handleAcknowledgeAlert)
	mux.HandleFunc("GET /api/v1/status", h.handleStatus)
}

func (h *APIHandler) handleListEquipment(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *APIHandler) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, found := h.state.View(id)
	if !found {
		NotFound(w, "equipment not found", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HistoryResponse is the response for GET /api/v1/parameters/{id}/history.
type HistoryResponse struct {
	ParameterID int64                  `json:"parameter_id"`
	Hours       float64                `json:"hours"`
	Samples     []models.HistorySample `json:"samples"`
}

func (h *APIHandler) handleParameterHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, found := h.state.Parameter(id); !found {
		NotFound(w, "parameter not found", r.URL.Path)
		return
	}

	hours, err := strconv.ParseFloat(r.URL.Query().Get("hours"), 64)
	if err != nil || hours <= 0 {
		BadRequest(w, "hours must be a positive number", r.URL.Path)
		return
	}

	now := time.Now()
	samples, err := h.historyWindow(r.Context(), id, hours, now)
	if err != nil {
		if errors.Is(err, feed.ErrTimeout) {
			GatewayTimeout(w, "upstream history fetch timed out", r.URL.Path)
			return
		}
		h.logger.Error("history query failed", zap.Int64("parameter_id", id), zap.Error(err))
		InternalError(w, "history query failed", r.URL.Path)
		return
	}
	if samples == nil {
		samples = []models.HistorySample{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		ParameterID: id,
		Hours:       hours,
		Samples:     samples,
	})
}

// historyWindow serves from local retention first and falls back to the
// upstream fetch when the local store is disabled or empty.
func (h *APIHandler) historyWindow(ctx context.Context, parameterID int64, hours float64, now time.Time) ([]models.HistorySample, error) {
	if h.history != nil {
		samples, err := h.history.Window(ctx, parameterID, hours, now)
		if err == nil && len(samples) > 0 {
			return samples, nil
		}
		if err != nil {
			h.logger.Warn("local history query failed, falling back to upstream",
				zap.Int64("parameter_id", parameterID), zap.Error(err))
		}
	}
	since := now.Add(-time.Duration(hours * float64(time.Hour)))
	samples, err := h.remote.FetchHistory(ctx, parameterID, since)
	if err != nil {
		return nil, err
	}
	// Upstream honors the since filter loosely; trim to the exact window.
	return telemetry.Window(samples, hours, now), nil
}

// TrendResponse is the response for GET /api/v1/parameters/{id}/trend.
type TrendResponse struct {
	ParameterID int64 `json:"parameter_id"`
	telemetry.TrendDetail
}

func (h *APIHandler) handleParameterTrend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, found := h.state.Parameter(id); !found {
		NotFound(w, "parameter not found", r.URL.Path)
		return
	}

	samples, err := h.trendSamples(r.Context(), id)
	if err != nil {
		if errors.Is(err, feed.ErrTimeout) {
			GatewayTimeout(w, "upstream history fetch timed out", r.URL.Path)
			return
		}
		h.logger.Error("trend query failed", zap.Int64("parameter_id", id), zap.Error(err))
		InternalError(w, "trend query failed", r.URL.Path)
		return
	}

	writeJSON(w, http.StatusOK, TrendResponse{
		ParameterID: id,
		TrendDetail: telemetry.AnalyzeTrend(samples),
	})
}

func (h *APIHandler) trendSamples(ctx context.Context, parameterID int64) ([]models.HistorySample, error) {
	if h.history != nil {
		samples, err := h.history.Latest(ctx, parameterID, trendSampleCount)
		if err == nil && len(samples) >= trendSampleCount {
			return samples, nil
		}
		if err != nil {
			h.logger.Warn("local trend query failed, falling back to upstream",
				zap.Int64("parameter_id", parameterID), zap.Error(err))
		}
	}
	samples, err := h.remote.FetchHistory(ctx, parameterID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	if len(samples) > trendSampleCount {
		samples = samples[len(samples)-trendSampleCount:]
	}
	return samples, nil
}

// PeriodsResponse lists the selectable history windows per equipment
// type, in hours.
type PeriodsResponse struct {
	Kiln  []float64 `json:"kiln"`
	Dryer []float64 `json:"dryer"`
}

func (h *APIHandler) handlePeriods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PeriodsResponse{
		Kiln:  telemetry.KilnPeriodHours,
		Dryer: telemetry.DryerPeriodHours,
	})
}

// AlertsResponse is the response for GET /api/v1/alerts.
type AlertsResponse struct {
	Alerts []alerts.AlertView `json:"alerts"`
	Counts models.AlertCounts `json:"counts"`
}

func (h *APIHandler) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	list := h.alerts.List()
	if list == nil {
		list = []alerts.AlertView{}
	}
	writeJSON(w, http.StatusOK, AlertsResponse{
		Alerts: list,
		Counts: h.alerts.Counts(),
	})
}

func (h *APIHandler) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.alerts.Acknowledge(r.Context(), id); err != nil {
		if errors.Is(err, alerts.ErrNotFound) {
			NotFound(w, "alert not found", r.URL.Path)
			return
		}
		h.logger.Error("acknowledge failed", zap.Int64("alert_id", id), zap.Error(err))
		InternalError(w, "acknowledge failed", r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := models.SystemStatus{
		IsConnected:   h.conn != nil && h.conn.Connected(),
		StoreDegraded: h.state.Degraded(),
		LastChecked:   time.Now(),
	}
	if h.probe != nil {
		reachable, checked := h.probe.Reachable()
		status.OfflineMode = !reachable
		if !checked.IsZero() {
			status.LastChecked = checked
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// pathID parses the {id} path segment, writing a 400 problem on
// failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequest(w, "invalid id", r.URL.Path)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
