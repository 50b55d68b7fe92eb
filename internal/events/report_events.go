package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the report lifecycle events
type EventType string

const (
	// Job requests, consumed by report workers
	EventReportGenerationRequested EventType = "report.generation_requested"

	// Job outcomes
	EventReportGenerated         EventType = "report.generated"
	EventReportGenerationFailed  EventType = "report.generation_failed"
	EventReportGenerationSkipped EventType = "report.generation_skipped"
)

const (
	EventSource  = "report-service"
	EventVersion = "1.0"
)

// ReportEvent is the envelope of every event the service publishes
type ReportEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewReportEvent wraps data in a fresh envelope.
func NewReportEvent(eventType EventType, data interface{}) *ReportEvent {
	return &ReportEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		Data:      data,
	}
}

// IsJobRequest reports whether the event belongs on the job topic.
func (e *ReportEvent) IsJobRequest() bool {
	return e.Type == EventReportGenerationRequested
}

// DecodeData unmarshals the event data into dest. Events read back from a
// transport carry their data as generic JSON.
func (e *ReportEvent) DecodeData(dest interface{}) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", e.Type, err)
	}
	return nil
}

// Report event payloads

type GenerationRequestedEvent struct {
	JobID       string    `json:"job_id"`
	BatchID     uint      `json:"batch_id"`
	JobType     string    `json:"job_type"`
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}

type ReportGeneratedEvent struct {
	JobID       string      `json:"job_id"`
	BatchID     uint        `json:"batch_id"`
	JobType     string      `json:"job_type"`
	Mode        string      `json:"mode"`
	Summary     interface{} `json:"summary,omitempty"`
	CompletedAt time.Time   `json:"completed_at"`
}

type GenerationFailedEvent struct {
	JobID    string    `json:"job_id"`
	BatchID  uint      `json:"batch_id"`
	JobType  string    `json:"job_type"`
	Error    string    `json:"error"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failed_at"`
}

type GenerationSkippedEvent struct {
	JobID     string    `json:"job_id"`
	BatchID   uint      `json:"batch_id"`
	JobType   string    `json:"job_type"`
	Reason    string    `json:"reason"`
	SkippedAt time.Time `json:"skipped_at"`
}
