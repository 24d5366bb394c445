package core

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"biosentinel/internal/types"
)

// Validator wraps go-playground/validator for request struct validation.
// Handlers call ValidateStruct after DecodeJSON so that tag violations are
// surfaced as structured AppErrors rather than raw library errors.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidateStruct validates the struct's `validate` tags and maps the first
// violation to a *types.AppError (validation_missing_required_field for
// "required" violations, field-specific details otherwise). Returns nil when
// the struct is valid.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	first := errs[0]
	if first.Tag() == "required" {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"missing required field",
			err,
			map[string]any{"field": first.Field()},
		)
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationMissingField,
		"invalid value for field",
		err,
		map[string]any{"field": first.Field(), "rule": first.Tag()},
	)
}
