// Package handlers contains the HTTP handler implementations for the
// BioSentinel API.
//
// This file implements the alert endpoints:
//   - Alert listing (GET /v1/alerts)
//   - Manual alert creation (POST /v1/alerts)
//   - Classify-and-store pipeline (POST /v1/alerts/process)
//   - Regional fire risk analysis (GET /v1/alerts/risk-analysis)
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"biosentinel/internal/core"
	"biosentinel/internal/types"
)

// AlertServiceInterface defines the service contract for the alert handler.
// Matches the alerts.Service methods but is defined locally to avoid tight
// coupling per the handler injection pattern.
type AlertServiceInterface interface {
	ProcessSpecies(ctx context.Context, species string, lat, lon float64, radiusKm int) (types.ClassifyResponse, *types.Alert)
	RiskAnalysis(ctx context.Context) types.FireRiskResult
	Create(ctx context.Context, alert types.Alert) (*types.Alert, error)
	List(ctx context.Context) ([]types.Alert, error)
}

// AlertHandler maps HTTP requests to the alert service.
type AlertHandler struct {
	service   AlertServiceInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewAlertHandler creates a new AlertHandler with the provided dependencies.
func NewAlertHandler(
	svc AlertServiceInterface,
	val *core.Validator,
	logger *slog.Logger,
) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the alert endpoints onto the v1 mux.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/process", h.HandleProcess)
		r.Get("/risk-analysis", h.HandleRiskAnalysis)
	})
}

// createAlertResponse reports whether the record reached the sink. A failed
// save is a degraded success, not an error response.
type createAlertResponse struct {
	Saved bool         `json:"saved"`
	Alert *types.Alert `json:"alert,omitempty"`
}

// processAlertResponse carries the full classification result plus the
// stored alert, when the score crossed the alert threshold and the save
// succeeded.
type processAlertResponse struct {
	Risk  types.ClassifyResponse `json:"risk"`
	Saved bool                   `json:"saved"`
	Alert *types.Alert           `json:"alert,omitempty"`
}

// HandleList handles GET /v1/alerts. Alerts are returned newest first.
func (h *AlertHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: alerts})
}

// HandleCreate handles POST /v1/alerts.
//
// Persistence failure degrades to saved=false in a 200 response; the sink
// contract treats "not saved" as a state callers check, not an error they
// catch.
func (h *AlertHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var alert types.Alert
	if err := core.DecodeJSON(w, r, &alert); err != nil {
		core.Error(w, r, err)
		return
	}

	if alert.Title == "" {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"missing required field",
			nil,
			map[string]any{"field": "title"},
		))
		return
	}

	saved, err := h.service.Create(r.Context(), alert)
	if err != nil {
		h.logger.WarnContext(r.Context(), "alert not saved",
			"title", alert.Title,
			"error", err,
		)
		core.JSON(w, r, http.StatusOK, core.APIResponse{
			Data: createAlertResponse{Saved: false},
		})
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{
		Data: createAlertResponse{Saved: true, Alert: saved},
	})
}

// HandleProcess handles POST /v1/alerts/process.
//
// Runs the species classifier and stores an alert when the score crosses
// the alert threshold. The risk analysis is returned either way; a nil
// alert means below threshold or save failure.
func (h *AlertHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req types.ClassifyRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, alert := h.service.ProcessSpecies(r.Context(), req.Species, *req.Lat, *req.Lon, req.Radius)

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: processAlertResponse{
			Risk:  result,
			Saved: alert != nil,
			Alert: alert,
		},
	})
}

// HandleRiskAnalysis handles GET /v1/alerts/risk-analysis.
//
// The regional fire feed fails soft inside the service, so this endpoint
// always answers 200; an unreachable feed yields the Low-risk fallback.
func (h *AlertHandler) HandleRiskAnalysis(w http.ResponseWriter, r *http.Request) {
	result := h.service.RiskAnalysis(r.Context())

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}
