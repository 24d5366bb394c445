// Package handlers contains the HTTP handler implementations for the
// BioSentinel API.
//
// This file implements the satellite analysis endpoints:
//   - AOI layer analysis (POST /v1/satellite/fetch)
//   - Layer catalog (GET /v1/satellite/layers)
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"biosentinel/internal/core"
	"biosentinel/internal/satellite"
	"biosentinel/internal/types"
)

// SatelliteServiceInterface defines the service contract for the satellite
// handler.
type SatelliteServiceInterface interface {
	Analyze(ctx context.Context, aoi types.AOI, layers []string) types.LayerResult
}

// SatelliteHandler maps HTTP requests to the AOI layer analysis service.
type SatelliteHandler struct {
	service SatelliteServiceInterface
	logger  *slog.Logger
}

// NewSatelliteHandler creates a new SatelliteHandler with the provided
// dependencies.
func NewSatelliteHandler(svc SatelliteServiceInterface, logger *slog.Logger) *SatelliteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SatelliteHandler{
		service: svc,
		logger:  logger,
	}
}

// RegisterRoutes mounts the satellite endpoints onto the v1 mux.
func (h *SatelliteHandler) RegisterRoutes(r chi.Router) {
	r.Route("/satellite", func(r chi.Router) {
		r.Post("/fetch", h.HandleFetch)
		r.Get("/layers", h.HandleLayers)
	})
}

// satelliteFetchRequest is the input contract for the AOI analysis
// entrypoint. Both fields are required; an empty layer list is a validation
// failure rather than an implicit "all layers".
type satelliteFetchRequest struct {
	AOI    *types.AOI `json:"aoi"`
	Layers []string   `json:"layers"`
}

// HandleFetch handles POST /v1/satellite/fetch.
//
//  1. Decode and validate the request (aoi and layers required, layer
//     names must be known, the AOI must be well formed).
//  2. Run the per-layer analysis; provider outages degrade to empty layer
//     signals inside the service.
//  3. Return the per-layer results with the aggregate risk annotation.
func (h *SatelliteHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	var req satelliteFetchRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if req.AOI == nil {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"missing required field",
			nil,
			map[string]any{"field": "aoi"},
		))
		return
	}
	if len(req.Layers) == 0 {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"missing required field",
			nil,
			map[string]any{"field": "layers"},
		))
		return
	}

	if !types.ValidAOI(*req.AOI) {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidAOI,
			"aoi bounds must be within WGS84 range with min below max",
			nil,
		))
		return
	}

	for _, layer := range req.Layers {
		if !satellite.ValidLayer(layer) {
			core.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationInvalidLayer,
				"unknown satellite layer",
				nil,
				map[string]any{"layer": layer},
			))
			return
		}
	}

	result := h.service.Analyze(r.Context(), *req.AOI, req.Layers)

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// HandleLayers handles GET /v1/satellite/layers. The catalog is static, so
// responses are safe to cache.
func (h *SatelliteHandler) HandleLayers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: satellite.AvailableLayers()})
}
