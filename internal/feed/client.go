package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dnenndn/monitoringAPP/pkg/models"
)

// ClientConfig holds the upstream REST endpoint and per-call time
// budgets. A full snapshot must land within SnapshotTimeout; history
// queries get a slightly larger budget because they page over more
// rows.
type ClientConfig struct {
	BaseURL         string
	APIKey          string
	SnapshotTimeout time.Duration
	HistoryTimeout  time.Duration
	AckTimeout      time.Duration
}

// Client fetches snapshots, history, and alerts from the upstream REST
// surface. All methods honor their configured time budget and map
// deadline expiry to ErrTimeout.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a REST client. Zero timeouts fall back to
// defaults matching the upstream deployment.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = 10 * time.Second
	}
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = 12 * time.Second
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger.Named("feed"),
	}
}

// FetchSnapshot retrieves the full equipment graph with nested
// parameters. Records missing identity fields are skipped and counted,
// never fatal.
func (c *Client) FetchSnapshot(ctx context.Context) ([]models.Equipment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SnapshotTimeout)
	defer cancel()

	var records []equipmentRecord
	if err := c.getJSON(ctx, "snapshot", "/equipment?active=true", &records); err != nil {
		return nil, err
	}

	out := make([]models.Equipment, 0, len(records))
	for _, rec := range records {
		if rec.ID == nil {
			malformedRecordsTotal.Inc()
			c.logger.Warn("skipping equipment record without id")
			continue
		}
		eq := models.Equipment{ID: *rec.ID}
		if rec.Name != nil {
			eq.Name = *rec.Name
		}
		if rec.Type != nil {
			eq.Type = *rec.Type
		}
		if rec.Status != nil {
			eq.Status = *rec.Status
		}
		if rec.IsActive != nil {
			eq.IsActive = *rec.IsActive
		}
		for _, pr := range rec.Parameters {
			p, err := pr.toModel(eq.ID)
			if err != nil {
				malformedRecordsTotal.Inc()
				c.logger.Warn("skipping parameter record",
					zap.Int64("equipment_id", eq.ID),
					zap.Error(err))
				continue
			}
			eq.Parameters = append(eq.Parameters, p)
		}
		out = append(out, eq)
	}
	return out, nil
}

// FetchHistory retrieves samples for a parameter newer than since,
// oldest first.
func (c *Client) FetchHistory(ctx context.Context, parameterID int64, since time.Time) ([]models.HistorySample, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HistoryTimeout)
	defer cancel()

	path := fmt.Sprintf("/parameter_history?parameter_id=%d&since=%s",
		parameterID, url.QueryEscape(since.UTC().Format(time.RFC3339)))

	var records []struct {
		ParameterID int64     `json:"parameter_id"`
		Timestamp   time.Time `json:"timestamp"`
		Value       float64   `json:"value"`
	}
	if err := c.getJSON(ctx, "history", path, &records); err != nil {
		return nil, err
	}

	out := make([]models.HistorySample, 0, len(records))
	for _, rec := range records {
		out = append(out, models.HistorySample{
			ParameterID: rec.ParameterID,
			Timestamp:   rec.Timestamp,
			Value:       rec.Value,
		})
	}
	return out, nil
}

// FetchAlerts retrieves the current alert list, newest first.
func (c *Client) FetchAlerts(ctx context.Context) ([]models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SnapshotTimeout)
	defer cancel()

	var alerts []models.Alert
	if err := c.getJSON(ctx, "alerts", "/alerts?order=created_at.desc", &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert acknowledged upstream.
func (c *Client) AcknowledgeAlert(ctx context.Context, alertID int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AckTimeout)
	defer cancel()

	path := "/alerts/" + strconv.FormatInt(alertID, 10) + "/acknowledge"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build acknowledge request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		fetchDuration.WithLabelValues("acknowledge", "error").Observe(time.Since(start).Seconds())
		return c.mapErr("acknowledge", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	fetchDuration.WithLabelValues("acknowledge", strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("acknowledge alert %d: unexpected status %d", alertID, resp.StatusCode)
	}
	return nil
}

// getJSON performs a GET against the upstream and decodes the response
// body into v.
func (c *Client) getJSON(ctx context.Context, call, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", call, err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		fetchDuration.WithLabelValues(call, "error").Observe(time.Since(start).Seconds())
		return c.mapErr(call, err)
	}
	defer resp.Body.Close()

	fetchDuration.WithLabelValues(call, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s fetch: unexpected status %d", call, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s fetch: decode response: %w", call, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// mapErr normalizes transport failures so callers can distinguish a
// blown time budget from everything else.
func (c *Client) mapErr(call string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%s fetch: %w", call, ErrTimeout)
	}
	return fmt.Errorf("%s fetch: %w", call, err)
}
