package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("batch_id", "is required", 0)

	assert.Equal(t, "batch_id", err.Field)
	assert.Equal(t, "is required", err.Message)
	assert.Equal(t, 0, err.Value)
	assert.Equal(t, "validation error on field 'batch_id': is required", err.Error())
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("batch_id", "is required", nil))
	assert.Equal(t, "validation failed: batch_id is required", errs.Error())

	errs = append(errs, *NewValidationError("job_type", "is invalid", nil))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("score_type", "is invalid", "score_type", "x")

	assert.Equal(t, "score_type", err.Rule)
	assert.Equal(t, "score_type", err.Field)
}

func TestToValidationErrors(t *testing.T) {
	type request struct {
		BatchID uint   `validate:"required"`
		JobType string `validate:"oneof=1 2 3"`
	}

	v := validator.New()
	err := v.Struct(request{JobType: "9"})
	require.Error(t, err)

	errs := ToValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "BatchID", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "required", errs[0].Rule)
	assert.Equal(t, "must be one of: 1 2 3", errs[1].Message)
}

func TestToValidationErrors_IgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, ToValidationErrors(assert.AnError))
}
