// Package handlers contains the HTTP handler implementations for the
// BioSentinel API.
//
// This file implements the risk classification endpoints:
//   - Species risk classification (POST /v1/risk/classify)
//   - Species name search proxy (GET /v1/species/search)
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"biosentinel/internal/core"
	"biosentinel/internal/types"
)

// defaultSpeciesSearchLimit is the page size requested from the species
// match endpoint when the query omits a limit.
const defaultSpeciesSearchLimit = 20

// SpeciesClassifier defines the classification contract for the risk
// handler. Matches risk.Classifier but is defined locally to avoid tight
// coupling per the handler injection pattern.
type SpeciesClassifier interface {
	Classify(ctx context.Context, species string, lat, lon float64, radiusKm int) types.ClassifyResponse
}

// SpeciesSearcher proxies free-text species search to the occurrence
// provider.
type SpeciesSearcher interface {
	SearchSpecies(ctx context.Context, query string, limit int) (json.RawMessage, error)
}

// RiskHandler maps HTTP requests to the species risk classifier and the
// species search proxy.
type RiskHandler struct {
	classifier SpeciesClassifier
	search     SpeciesSearcher
	validator  *core.Validator
	logger     *slog.Logger
}

// NewRiskHandler creates a new RiskHandler with the provided dependencies.
func NewRiskHandler(
	classifier SpeciesClassifier,
	search SpeciesSearcher,
	val *core.Validator,
	logger *slog.Logger,
) *RiskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskHandler{
		classifier: classifier,
		search:     search,
		validator:  val,
		logger:     logger,
	}
}

// RegisterRoutes mounts the risk and species endpoints onto the v1 mux.
func (h *RiskHandler) RegisterRoutes(r chi.Router) {
	r.Post("/risk/classify", h.HandleClassify)
	r.Get("/species/search", h.HandleSearchSpecies)
}

// HandleClassify handles POST /v1/risk/classify.
//
//  1. Decode and validate the request (species, lat, lon required).
//  2. Run the species risk classifier; provider outages degrade to the
//     documented fallbacks inside the classifier, so this call cannot fail.
//  3. Return the risk result with the resolved input signals.
func (h *RiskHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req types.ClassifyRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	lat, lon := *req.Lat, *req.Lon
	if lat < types.MinLat || lat > types.MaxLat {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidLat,
			"lat must be between -90 and 90",
			nil,
		))
		return
	}
	if lon < types.MinLon || lon > types.MaxLon {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidLon,
			"lon must be between -180 and 180",
			nil,
		))
		return
	}

	result := h.classifier.Classify(r.Context(), req.Species, lat, lon, req.Radius)

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// HandleSearchSpecies handles GET /v1/species/search.
// Query params: q (required), limit (optional, default 20).
//
// The provider's response body is passed through untouched so that clients
// see the upstream taxonomy schema.
func (h *RiskHandler) HandleSearchSpecies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"q query parameter is required",
			nil,
		))
		return
	}

	limit := defaultSpeciesSearchLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationMissingField,
				"limit must be a positive integer",
				nil,
			))
			return
		}
		limit = parsed
	}

	body, err := h.search.SearchSpecies(r.Context(), query, limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: body})
}
