package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testProbe struct {
	name string
	err  error
}

func (p testProbe) Name() string                  { return p.name }
func (p testProbe) Check(_ context.Context) error { return p.err }

func TestHandleHealth_NoProbes(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	srv := newTestServer(t)
	srv.HealthProbes = []HealthProbe{
		testProbe{name: "database"},
		testProbe{name: "alert_store"},
	}

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if len(resp.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(resp.Components))
	}
}

func TestHandleHealth_UnhealthyProbe(t *testing.T) {
	srv := newTestServer(t)
	srv.HealthProbes = []HealthProbe{
		testProbe{name: "database", err: errors.New("connection refused")},
		testProbe{name: "alert_store"},
	}

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", resp.Status)
	}
	if resp.Components["database"].Status != "unhealthy" {
		t.Errorf("database component = %+v", resp.Components["database"])
	}
	if resp.Components["alert_store"].Status != "healthy" {
		t.Errorf("alert_store component = %+v", resp.Components["alert_store"])
	}
}

func TestHandleHealth_PanickingProbe(t *testing.T) {
	srv := newTestServer(t)
	srv.HealthProbes = []HealthProbe{panicProbe{}}

	rec := httptest.NewRecorder()
	srv.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

type panicProbe struct{}

func (panicProbe) Name() string                  { return "flaky" }
func (panicProbe) Check(_ context.Context) error { panic("probe exploded") }
