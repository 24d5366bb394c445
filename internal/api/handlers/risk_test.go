package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"biosentinel/internal/core"
	"biosentinel/internal/types"
)

// --- Mocks ---

type mockClassifier struct {
	result      types.ClassifyResponse
	lastSpecies string
	lastLat     float64
	lastLon     float64
	lastRadius  int
	calls       int
}

func (m *mockClassifier) Classify(_ context.Context, species string, lat, lon float64, radiusKm int) types.ClassifyResponse {
	m.calls++
	m.lastSpecies = species
	m.lastLat = lat
	m.lastLon = lon
	m.lastRadius = radiusKm
	return m.result
}

type mockSearcher struct {
	body      json.RawMessage
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockSearcher) SearchSpecies(_ context.Context, query string, limit int) (json.RawMessage, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.body, m.err
}

// --- Helpers ---

func newTestRiskHandler(classifier SpeciesClassifier, search SpeciesSearcher) http.Handler {
	logger := slog.Default()
	h := NewRiskHandler(classifier, search, core.NewValidator(logger), logger)
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	return r
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp core.APIErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error.Code
}

// --- HandleClassify Tests ---

func TestHandleClassify_Success(t *testing.T) {
	classifier := &mockClassifier{
		result: types.ClassifyResponse{
			RiskResult: types.RiskResult{
				Score:        3.8,
				Level:        types.RiskCritical,
				Reasons:      []string{"Endangered species detected"},
				TrendRatio:   3.0,
				Observations: 12,
			},
			IsEndangered:   true,
			HumanProximity: 0.7,
		},
	}
	router := newTestRiskHandler(classifier, &mockSearcher{})

	body := `{"species":"Panthera leo","lat":-1.29,"lon":36.82,"radius":50}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if classifier.lastSpecies != "Panthera leo" {
		t.Errorf("expected species passed through, got %q", classifier.lastSpecies)
	}
	if classifier.lastRadius != 50 {
		t.Errorf("expected radius 50, got %d", classifier.lastRadius)
	}

	var resp struct {
		Data types.ClassifyResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Score != 3.8 {
		t.Errorf("expected score 3.8, got %v", resp.Data.Score)
	}
	if !resp.Data.IsEndangered {
		t.Error("expected isEndangered true")
	}
}

func TestHandleClassify_MissingSpecies(t *testing.T) {
	classifier := &mockClassifier{}
	router := newTestRiskHandler(classifier, &mockSearcher{})

	body := `{"lat":-1.29,"lon":36.82}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body); code != string(types.ErrCodeValidationMissingField) {
		t.Errorf("unexpected error code %q", code)
	}
	if classifier.calls != 0 {
		t.Error("classifier must not run on invalid input")
	}
}

func TestHandleClassify_MissingCoordinates(t *testing.T) {
	// Zero is a valid coordinate, so lat/lon are pointers; absence, not
	// zero, is the validation failure.
	for _, body := range []string{
		`{"species":"Panthera leo","lon":36.82}`,
		`{"species":"Panthera leo","lat":-1.29}`,
	} {
		router := newTestRiskHandler(&mockClassifier{}, &mockSearcher{})
		req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected status 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleClassify_ZeroCoordinatesAccepted(t *testing.T) {
	classifier := &mockClassifier{}
	router := newTestRiskHandler(classifier, &mockSearcher{})

	body := `{"species":"Panthera leo","lat":0,"lon":0}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for (0,0), got %d: %s", rec.Code, rec.Body.String())
	}
	if classifier.calls != 1 {
		t.Error("expected classifier to run")
	}
}

func TestHandleClassify_OutOfRangeLat(t *testing.T) {
	router := newTestRiskHandler(&mockClassifier{}, &mockSearcher{})

	body := `{"species":"Panthera leo","lat":95,"lon":36.82}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body); code != string(types.ErrCodeValidationInvalidLat) {
		t.Errorf("unexpected error code %q", code)
	}
}

func TestHandleClassify_RadiusTooLarge(t *testing.T) {
	router := newTestRiskHandler(&mockClassifier{}, &mockSearcher{})

	body := `{"species":"Panthera leo","lat":-1.29,"lon":36.82,"radius":1000}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleClassify_MalformedJSON(t *testing.T) {
	router := newTestRiskHandler(&mockClassifier{}, &mockSearcher{})

	req := httptest.NewRequest(http.MethodPost, "/v1/risk/classify", bytes.NewBufferString(`{"species":`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

// --- HandleSearchSpecies Tests ---

func TestHandleSearchSpecies_Success(t *testing.T) {
	search := &mockSearcher{
		body: json.RawMessage(`{"results":[{"scientificName":"Panthera leo"}]}`),
	}
	router := newTestRiskHandler(&mockClassifier{}, search)

	req := httptest.NewRequest(http.MethodGet, "/v1/species/search?q=lion", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if search.lastQuery != "lion" {
		t.Errorf("expected query %q, got %q", "lion", search.lastQuery)
	}
	if search.lastLimit != defaultSpeciesSearchLimit {
		t.Errorf("expected default limit %d, got %d", defaultSpeciesSearchLimit, search.lastLimit)
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !bytes.Contains(resp.Data, []byte("Panthera leo")) {
		t.Errorf("expected provider body passed through, got %s", resp.Data)
	}
}

func TestHandleSearchSpecies_MissingQuery(t *testing.T) {
	router := newTestRiskHandler(&mockClassifier{}, &mockSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/v1/species/search", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleSearchSpecies_CustomLimit(t *testing.T) {
	search := &mockSearcher{body: json.RawMessage(`{"results":[]}`)}
	router := newTestRiskHandler(&mockClassifier{}, search)

	req := httptest.NewRequest(http.MethodGet, "/v1/species/search?q=lion&limit=5", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if search.lastLimit != 5 {
		t.Errorf("expected limit 5, got %d", search.lastLimit)
	}
}

func TestHandleSearchSpecies_UpstreamFailure(t *testing.T) {
	search := &mockSearcher{
		err: types.NewAppError(types.ErrCodeUpstreamOccurrence, "species search failed", nil),
	}
	router := newTestRiskHandler(&mockClassifier{}, search)

	req := httptest.NewRequest(http.MethodGet, "/v1/species/search?q=lion", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body); code != string(types.ErrCodeUpstreamOccurrence) {
		t.Errorf("unexpected error code %q", code)
	}
}
