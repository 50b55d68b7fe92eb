package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher defines the interface for publishing report events
type EventPublisher interface {
	PublishReportEvent(ctx context.Context, event *ReportEvent) error
	Close() error
}

// Topics routes job requests and job outcomes to separate topics.
type Topics struct {
	Jobs   string
	Events string
}

func (t Topics) For(event *ReportEvent) string {
	if event.IsJobRequest() {
		return t.Jobs
	}
	return t.Events
}

// WatermillEventPublisher implements EventPublisher on any Watermill publisher
type WatermillEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topics    Topics
}

// PublisherConfig holds configuration for the event publisher
type PublisherConfig struct {
	KafkaBrokers []string
	Topics       Topics
	Logger       *slog.Logger
}

// NewKafkaEventPublisher creates a new Kafka-based event publisher using Watermill
func NewKafkaEventPublisher(config PublisherConfig) (*WatermillEventPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return NewWatermillEventPublisher(publisher, config.Topics, config.Logger), nil
}

// NewWatermillEventPublisher wraps an existing Watermill publisher, such as
// an in-process gochannel pub/sub.
func NewWatermillEventPublisher(publisher message.Publisher, topics Topics, logger *slog.Logger) *WatermillEventPublisher {
	return &WatermillEventPublisher{
		publisher: publisher,
		logger:    logger,
		topics:    topics,
	}
}

// PublishReportEvent publishes a report event on the topic of its kind
func (p *WatermillEventPublisher) PublishReportEvent(ctx context.Context, event *ReportEvent) error {
	msg, err := NewEventMessage(event)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	topic := p.topics.For(event)
	if err := p.publisher.Publish(topic, msg); err != nil {
		p.logger.Error("Failed to publish report event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish report event: %w", err)
	}

	p.logger.Info("Published report event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", topic)

	return nil
}

// Close closes the publisher and releases resources
func (p *WatermillEventPublisher) Close() error {
	return p.publisher.Close()
}

// NewEventMessage encodes an event as a Watermill message with the envelope
// fields copied into the metadata headers.
func NewEventMessage(event *ReportEvent) (*message.Message, error) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))
	return msg, nil
}

// DecodeEventMessage reads the envelope back from a message payload.
func DecodeEventMessage(msg *message.Message) (*ReportEvent, error) {
	var event ReportEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report event %s: %w", msg.UUID, err)
	}
	return &event, nil
}

// MockEventPublisher is a mock implementation for testing
type MockEventPublisher struct {
	mutex  sync.Mutex
	Events []ReportEvent
	Logger *slog.Logger
	Err    error // returned from PublishReportEvent when set
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]ReportEvent, 0),
		Logger: logger,
	}
}

// PublishReportEvent stores the event in memory (for testing)
func (m *MockEventPublisher) PublishReportEvent(ctx context.Context, event *ReportEvent) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, *event)
	m.Logger.Info("Mock: Published report event",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

// Close is a no-op for the mock publisher
func (m *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns all published events (for testing)
func (m *MockEventPublisher) GetPublishedEvents() []ReportEvent {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]ReportEvent(nil), m.Events...)
}

// EventsOfType returns the published events of one type (for testing)
func (m *MockEventPublisher) EventsOfType(eventType EventType) []ReportEvent {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var matched []ReportEvent
	for _, event := range m.Events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// ClearEvents clears all published events (for testing)
func (m *MockEventPublisher) ClearEvents() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Events = make([]ReportEvent, 0)
}
