package services

import (
	"errors"

	apperrors "github.com/SAP-F-2025/report-service/internal/errors"
	"github.com/SAP-F-2025/report-service/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Batch errors
	ErrBatchNotFound      = errors.New("batch not found")
	ErrBatchRunInProgress = errors.New("report run already in progress for batch")
	ErrInvalidRunMode     = errors.New("invalid run mode")
	ErrInvalidScoreType   = errors.New("invalid score type")

	// Report job errors
	ErrReportJobNotFound   = errors.New("report job not found")
	ErrReportJobFinished   = errors.New("report job already finished")
	ErrRunMarkerNotFound   = errors.New("run marker not found")
	ErrEventPublishFailure = errors.New("failed to publish report event")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrReportJobNotFound) ||
		errors.Is(err, ErrRunMarkerNotFound) ||
		repositories.IsNotFoundError(err)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidRunMode) ||
		errors.Is(err, ErrInvalidScoreType) ||
		errors.Is(err, ErrBadRequest) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrBatchRunInProgress) ||
		errors.Is(err, ErrReportJobFinished)
}
