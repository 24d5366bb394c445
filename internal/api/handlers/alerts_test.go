package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"biosentinel/internal/core"
	"biosentinel/internal/types"
)

// --- Mock Service ---

type mockAlertService struct {
	processResult types.ClassifyResponse
	processAlert  *types.Alert
	analysis      types.FireRiskResult
	createResult  *types.Alert
	createErr     error
	listResult    []types.Alert
	listErr       error
	createdWith   *types.Alert
}

func (m *mockAlertService) ProcessSpecies(_ context.Context, _ string, _, _ float64, _ int) (types.ClassifyResponse, *types.Alert) {
	return m.processResult, m.processAlert
}

func (m *mockAlertService) RiskAnalysis(_ context.Context) types.FireRiskResult {
	return m.analysis
}

func (m *mockAlertService) Create(_ context.Context, alert types.Alert) (*types.Alert, error) {
	m.createdWith = &alert
	return m.createResult, m.createErr
}

func (m *mockAlertService) List(_ context.Context) ([]types.Alert, error) {
	return m.listResult, m.listErr
}

// --- Helpers ---

func newTestAlertRouter(svc AlertServiceInterface) http.Handler {
	logger := slog.Default()
	h := NewAlertHandler(svc, core.NewValidator(logger), logger)
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	return r
}

// --- HandleList Tests ---

func TestHandleListAlerts_Success(t *testing.T) {
	svc := &mockAlertService{
		listResult: []types.Alert{
			{ID: "a1", Title: "Snow Leopard Activity Alert"},
			{ID: "a2", Title: "Fire Risk Alert: africa"},
		},
	}
	router := newTestAlertRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Data []types.Alert `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(resp.Data))
	}
	if resp.Data[0].ID != "a1" {
		t.Errorf("expected newest alert first, got %q", resp.Data[0].ID)
	}
}

func TestHandleListAlerts_StoreFailure(t *testing.T) {
	svc := &mockAlertService{
		listErr: types.NewAppError(types.ErrCodeInternalDB, "alert store unavailable", nil),
	}
	router := newTestAlertRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body); code != string(types.ErrCodeInternalDB) {
		t.Errorf("unexpected error code %q", code)
	}
}

// --- HandleCreate Tests ---

func TestHandleCreateAlert_Success(t *testing.T) {
	stored := types.Alert{ID: "a1", Title: "Manual Alert", Type: "Species Activity"}
	svc := &mockAlertService{createResult: &stored}
	router := newTestAlertRouter(svc)

	body := `{"type":"Species Activity","level":"High","icon":"eco","title":"Manual Alert","description":"d","time":"Just now","location":"1.00° N, 2.00° E","confidence":"60%","source":"GBIF ML Analysis"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/alerts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data createAlertResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Data.Saved {
		t.Error("expected saved=true")
	}
	if resp.Data.Alert == nil || resp.Data.Alert.ID != "a1" {
		t.Errorf("expected stored alert in response, got %+v", resp.Data.Alert)
	}
	if svc.createdWith == nil || svc.createdWith.Title != "Manual Alert" {
		t.Error("expected decoded alert passed to service")
	}
}

func TestHandleCreateAlert_SaveFailureDegrades(t *testing.T) {
	// Persistence failure is a degraded success, not a 500.
	svc := &mockAlertService{createErr: errors.New("disk full")}
	router := newTestAlertRouter(svc)

	body := `{"type":"Species Activity","title":"Manual Alert"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/alerts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Data createAlertResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Saved {
		t.Error("expected saved=false")
	}
	if resp.Data.Alert != nil {
		t.Errorf("expected no alert in response, got %+v", resp.Data.Alert)
	}
}

func TestHandleCreateAlert_MissingTitle(t *testing.T) {
	svc := &mockAlertService{}
	router := newTestAlertRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/alerts", bytes.NewBufferString(`{"type":"Species Activity"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if svc.createdWith != nil {
		t.Error("service must not run on invalid input")
	}
}

// --- HandleProcess Tests ---

func TestHandleProcess_OverThreshold(t *testing.T) {
	alert := types.Alert{ID: "a1", Title: "Panthera leo Activity Alert"}
	svc := &mockAlertService{
		processResult: types.ClassifyResponse{
			RiskResult: types.RiskResult{Score: 2.5, Level: types.RiskHigh},
		},
		processAlert: &alert,
	}
	router := newTestAlertRouter(svc)

	body := `{"species":"Panthera leo","lat":-1.29,"lon":36.82}`
	req := httptest.NewRequest(http.MethodPost, "/v1/alerts/process", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data processAlertResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Data.Saved {
		t.Error("expected saved=true")
	}
	if resp.Data.Risk.Score != 2.5 {
		t.Errorf("expected risk score 2.5, got %v", resp.Data.Risk.Score)
	}
	if resp.Data.Alert == nil || resp.Data.Alert.ID != "a1" {
		t.Errorf("expected alert in response, got %+v", resp.Data.Alert)
	}
}

func TestHandleProcess_BelowThreshold(t *testing.T) {
	svc := &mockAlertService{
		processResult: types.ClassifyResponse{
			RiskResult: types.RiskResult{Score: 0.4, Level: types.RiskPositive},
		},
		processAlert: nil,
	}
	router := newTestAlertRouter(svc)

	body := `{"species":"Passer domesticus","lat":-1.29,"lon":36.82}`
	req := httptest.NewRequest(http.MethodPost, "/v1/alerts/process", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Data processAlertResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Saved {
		t.Error("expected saved=false below threshold")
	}
	if resp.Data.Risk.Level != types.RiskPositive {
		t.Errorf("risk analysis must be returned either way, got %+v", resp.Data.Risk)
	}
}

func TestHandleProcess_MissingSpecies(t *testing.T) {
	router := newTestAlertRouter(&mockAlertService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/alerts/process", bytes.NewBufferString(`{"lat":1,"lon":2}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

// --- HandleRiskAnalysis Tests ---

func TestHandleRiskAnalysis_Success(t *testing.T) {
	svc := &mockAlertService{
		analysis: types.FireRiskResult{
			Level:            types.RiskHigh,
			Color:            "#FF007F",
			RiskScore:        2,
			Factors:          []string{"Moderate wildfire activity"},
			RiskLevelPercent: 66.66666666666666,
		},
	}
	router := newTestAlertRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts/risk-analysis", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Data types.FireRiskResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Color != "#FF007F" {
		t.Errorf("expected color #FF007F, got %q", resp.Data.Color)
	}
}

func TestHandleRiskAnalysis_FeedOutageFallback(t *testing.T) {
	// An unreachable fire feed still answers 200 with the Low fallback.
	svc := &mockAlertService{
		analysis: types.FireRiskResult{
			Level:            types.RiskLow,
			Color:            "#22ff88",
			RiskScore:        0,
			Factors:          []string{},
			RiskLevelPercent: 0,
		},
	}
	router := newTestAlertRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts/risk-analysis", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Data types.FireRiskResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Level != types.RiskLow || resp.Data.RiskScore != 0 {
		t.Errorf("expected Low fallback, got %+v", resp.Data)
	}
}
