package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// LogLevel represents different log levels for service operations
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service       string
	Component     string
	EnableMetrics bool
	EnableDebug   bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

// LogOperation logs the outcome of one service operation on a batch. mode is
// the run mode or job type involved, empty when not applicable.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, batchID uint, mode string, duration time.Duration, err error) {
	logLevel := LogLevelInfo
	status := "success"

	if err != nil {
		logLevel = LogLevelError
		status = "error"

		// Adjust log level based on error type
		if IsValidation(err) {
			logLevel = LogLevelWarn
			status = "validation_error"
		} else if IsConflict(err) {
			logLevel = LogLevelWarn
			status = "conflict"
		} else if IsNotFound(err) {
			logLevel = LogLevelInfo
			status = "not_found"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Uint64("batch_id", uint64(batchID)),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	if mode != "" {
		attrs = append(attrs, slog.String("mode", mode))
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		if validationErr, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		}
	}

	if requestID, ok := ctx.Value("request_id").(string); ok {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	// Add caller information for errors
	if err != nil && logLevel == LogLevelError {
		if pc, file, line, ok := runtime.Caller(1); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				attrs = append(attrs,
					slog.String("caller_func", fn.Name()),
					slog.String("caller_file", file),
					slog.Int("caller_line", line),
				)
			}
		}
	}

	message := fmt.Sprintf("%s operation %s", operation, status)

	switch logLevel {
	case LogLevelDebug:
		if l.config.EnableDebug {
			l.logger.LogAttrs(ctx, slog.LevelDebug, message, attrs...)
		}
	case LogLevelInfo:
		l.logger.LogAttrs(ctx, slog.LevelInfo, message, attrs...)
	case LogLevelWarn:
		l.logger.LogAttrs(ctx, slog.LevelWarn, message, attrs...)
	case LogLevelError:
		l.logger.LogAttrs(ctx, slog.LevelError, message, attrs...)
	}
}

func (l *ServiceLogger) LogValidationError(ctx context.Context, operation string, validationErrors ValidationErrors) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Int("error_count", len(validationErrors)),
	}

	for i, err := range validationErrors {
		if i < 5 { // Limit to first 5 errors to avoid log spam
			attrs = append(attrs, slog.Group(fmt.Sprintf("error_%d", i+1),
				slog.String("field", err.Field),
				slog.String("message", err.Message),
				slog.Any("value", err.Value),
			))
		}
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Validation failed", attrs...)
}

// ===== RUN LOGGING =====

func (l *ServiceLogger) LogRunSummary(ctx context.Context, summary *RunSummary) {
	if summary == nil {
		return
	}

	attrs := []slog.Attr{
		slog.Uint64("batch_id", uint64(summary.BatchID)),
		slog.String("mode", summary.Mode),
		slog.Int("students", summary.Students),
		slog.Duration("duration", summary.Duration),
	}
	if summary.GradingMode != "" {
		attrs = append(attrs,
			slog.String("grading_mode", summary.GradingMode),
			slog.Int("exam_groups", summary.ExamGroups),
			slog.Int("subject_rows", summary.SubjectRows),
			slog.Int("exam_group_rows", summary.ExamGroupRows),
			slog.Int("cohort_rows", summary.CohortRows),
			slog.Int64("rows_deleted", summary.RowsDeleted),
		)
	} else {
		attrs = append(attrs,
			slog.Int("scholastic_rows", summary.ScholasticRows),
			slog.Int("co_scholastic_rows", summary.CoScholasticRows),
			slog.Int64("rows_deleted", summary.RowsDeleted),
		)
	}

	level := slog.LevelInfo
	if !l.config.EnableMetrics {
		level = slog.LevelDebug
	}
	l.logger.LogAttrs(ctx, level, "Report run summary", attrs...)
}

// ===== MIDDLEWARE AND HELPERS =====

// ContextualLogger wraps operations with automatic logging
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	batchID   uint
	mode      string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string, batchID uint, mode string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		batchID:   batchID,
		mode:      mode,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(err error) {
	duration := time.Since(cl.startTime)
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.batchID, cl.mode, duration, err)

	if validationErrors, ok := err.(ValidationErrors); ok {
		cl.logger.LogValidationError(cl.ctx, cl.operation, validationErrors)
	}
}

// ===== ERROR FORMATTING HELPERS =====

func FormatError(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	result := map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}

	switch e := err.(type) {
	case ValidationErrors:
		result["type"] = "validation"
		result["count"] = len(e)

		fields := make([]map[string]interface{}, len(e))
		for i, validationErr := range e {
			fields[i] = map[string]interface{}{
				"field":   validationErr.Field,
				"message": validationErr.Message,
				"value":   validationErr.Value,
			}
		}
		result["errors"] = fields

	default:
		if IsNotFound(err) {
			result["type"] = "not_found"
		} else if IsConflict(err) {
			result["type"] = "conflict"
		} else if IsValidation(err) {
			result["type"] = "validation"
		}
	}

	return result
}
