package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{
		BaseURL:         srv.URL,
		SnapshotTimeout: 2 * time.Second,
		HistoryTimeout:  2 * time.Second,
		AckTimeout:      2 * time.Second,
	}, zap.NewNop())
	return c, srv
}

func TestFetchSnapshot(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/equipment" {
			t.Errorf("path = %s, want /equipment", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Kiln 1", "type": "kiln", "status": "firing", "is_active": true,
			 "plc_parameters": [{"id": 10, "equipment_id": 1, "parameter_name": "temperature",
			   "current_value": 950, "min_threshold": 900, "max_threshold": 1000}]},
			{"name": "no id, skipped"}
		]`))
	}))

	snap, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1 (malformed record skipped)", len(snap))
	}
	eq := snap[0]
	if eq.ID != 1 || eq.Name != "Kiln 1" {
		t.Errorf("equipment = %+v, want id 1 name Kiln 1", eq)
	}
	if len(eq.Parameters) != 1 || eq.Parameters[0].CurrentValue != 950 {
		t.Errorf("parameters = %+v, want one with value 950", eq.Parameters)
	}
}

func TestFetchSnapshotTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{
		BaseURL:         srv.URL,
		SnapshotTimeout: 50 * time.Millisecond,
	}, zap.NewNop())

	_, err := c.FetchSnapshot(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestFetchSnapshotBadStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if _, err := c.FetchSnapshot(context.Background()); err == nil {
		t.Fatal("FetchSnapshot() error = nil, want non-nil for 502")
	}
}

func TestFetchHistory(t *testing.T) {
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/parameter_history" {
			t.Errorf("path = %s, want /parameter_history", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("parameter_id") != "10" {
			t.Errorf("parameter_id = %s, want 10", q.Get("parameter_id"))
		}
		if q.Get("since") != "2026-08-01T00:00:00Z" {
			t.Errorf("since = %s, want 2026-08-01T00:00:00Z", q.Get("since"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"parameter_id": 10, "timestamp": "2026-08-01T01:00:00Z", "value": 940},
			{"parameter_id": 10, "timestamp": "2026-08-01T02:00:00Z", "value": 955}
		]`))
	}))

	samples, err := c.FetchHistory(context.Background(), 10, since)
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	if samples[0].Value != 940 || samples[1].Value != 955 {
		t.Errorf("values = %v, %v, want 940, 955", samples[0].Value, samples[1].Value)
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	var gotPath, gotMethod string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.AcknowledgeAlert(context.Background(), 7); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/alerts/7/acknowledge" {
		t.Errorf("path = %s, want /alerts/7/acknowledge", gotPath)
	}
}

func TestAcknowledgeAlertServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if err := c.AcknowledgeAlert(context.Background(), 7); err == nil {
		t.Fatal("AcknowledgeAlert() error = nil, want non-nil for 500")
	}
}

func TestClientAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "secret"}, zap.NewNop())
	if _, err := c.FetchAlerts(context.Background()); err != nil {
		t.Fatalf("FetchAlerts() error = %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
}
