package core

import (
	"errors"
	"testing"

	"biosentinel/internal/types"
)

type validatedRequest struct {
	Species string   `validate:"required,max=200"`
	Lat     *float64 `validate:"required"`
	Radius  int      `validate:"omitempty,gt=0,lte=500"`
}

func TestValidateStruct_Valid(t *testing.T) {
	v := NewValidator(nil)
	lat := -1.29

	if err := v.ValidateStruct(validatedRequest{Species: "Panthera leo", Lat: &lat, Radius: 25}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStruct_MissingRequired(t *testing.T) {
	v := NewValidator(nil)
	lat := -1.29

	err := v.ValidateStruct(validatedRequest{Lat: &lat})
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Code != types.ErrCodeValidationMissingField {
		t.Errorf("code = %q", appErr.Code)
	}
	if appErr.Details["field"] != "Species" {
		t.Errorf("details = %+v", appErr.Details)
	}
}

func TestValidateStruct_RuleViolation(t *testing.T) {
	v := NewValidator(nil)
	lat := -1.29

	err := v.ValidateStruct(validatedRequest{Species: "Panthera leo", Lat: &lat, Radius: 1000})
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Details["rule"] != "lte" {
		t.Errorf("expected lte rule in details, got %+v", appErr.Details)
	}
}
