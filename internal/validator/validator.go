package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with the report service's custom tags.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with all custom validations registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts tag failures into ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("run_mode", validateRunMode)
	validate.RegisterValidation("score_type", validateScoreType)
	validate.RegisterValidation("job_status", validateJobStatus)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateRunMode accepts the job type codes of batch report jobs. The empty
// code selects continuous evaluation.
func validateRunMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", models.JobTypeCurrentCohort, models.JobTypeArchivedCohort, models.JobTypeCCE:
		return true
	}
	return false
}

func validateScoreType(fl validator.FieldLevel) bool {
	validTypes := []models.ScoreType{
		models.ScoreTypeSubject,
		models.ScoreTypeExamGroup,
		models.ScoreTypeCohort,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateJobStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ReportJobStatus{
		models.ReportJobQueued,
		models.ReportJobRunning,
		models.ReportJobCompleted,
		models.ReportJobFailed,
		models.ReportJobSkipped,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}
