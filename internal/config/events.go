package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	PublisherKafka     = "kafka"
	PublisherGoChannel = "gochannel"
	PublisherMock      = "mock"
)

// EventConfig holds configuration for the job and outcome topics
type EventConfig struct {
	Enabled          bool   `env:"EVENTS_ENABLED" envDefault:"true"`
	Publisher        string `env:"EVENTS_PUBLISHER" envDefault:"kafka"` // kafka, gochannel or mock
	KafkaBrokers     string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	ReportJobTopic   string `env:"REPORT_JOB_TOPIC" envDefault:"report-jobs"`
	ReportEventTopic string `env:"REPORT_EVENT_TOPIC" envDefault:"report-events"`
	ConsumerGroup    string `env:"KAFKA_CONSUMER_GROUP" envDefault:"report-service"`
	MaxRetries       int    `env:"REPORT_JOB_MAX_RETRIES" envDefault:"3"`
}

func loadEventConfig() EventConfig {
	return EventConfig{
		Enabled:          getEnvBool("EVENTS_ENABLED", true),
		Publisher:        getEnv("EVENTS_PUBLISHER", PublisherKafka),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", "localhost:9092"),
		ReportJobTopic:   getEnv("REPORT_JOB_TOPIC", "report-jobs"),
		ReportEventTopic: getEnv("REPORT_EVENT_TOPIC", "report-events"),
		ConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "report-service"),
		MaxRetries:       getEnvInt("REPORT_JOB_MAX_RETRIES", 3),
	}
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func (c *EventConfig) Topics() events.Topics {
	return events.Topics{Jobs: c.ReportJobTopic, Events: c.ReportEventTopic}
}

// EventBus is the publisher and job subscriber pair used by the worker. The
// subscriber is nil for the mock bus, which delivers nothing.
type EventBus struct {
	Publisher  events.EventPublisher
	Subscriber message.Subscriber
	closers    []func() error
}

func (b *EventBus) Close() error {
	var firstErr error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CreateEventBus builds the transport selected by the configuration. With
// events disabled jobs still run through an in-process channel.
func (c *EventConfig) CreateEventBus(logger *slog.Logger) (*EventBus, error) {
	publisher := c.Publisher
	if !c.Enabled {
		logger.Info("External events disabled, using in-process job channel")
		publisher = PublisherGoChannel
	}

	switch publisher {
	case PublisherKafka:
		logger.Info("Creating Kafka event bus",
			"brokers", c.KafkaBrokers,
			"job_topic", c.ReportJobTopic,
			"event_topic", c.ReportEventTopic,
			"consumer_group", c.ConsumerGroup)

		kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			Topics:       c.Topics(),
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}

		subscriber, err := kafka.NewSubscriber(
			kafka.SubscriberConfig{
				Brokers:               c.GetKafkaBrokers(),
				Unmarshaler:           kafka.DefaultMarshaler{},
				OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
				ConsumerGroup:         c.ConsumerGroup,
			},
			watermill.NewSlogLogger(logger),
		)
		if err != nil {
			kafkaPublisher.Close()
			return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
		}

		return &EventBus{
			Publisher:  kafkaPublisher,
			Subscriber: subscriber,
			closers:    []func() error{kafkaPublisher.Close, subscriber.Close},
		}, nil

	case PublisherGoChannel:
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))

		return &EventBus{
			Publisher:  events.NewWatermillEventPublisher(pubSub, c.Topics(), logger),
			Subscriber: pubSub,
			closers:    []func() error{pubSub.Close},
		}, nil

	case PublisherMock:
		logger.Info("Using mock event publisher")
		return &EventBus{Publisher: events.NewMockEventPublisher(logger)}, nil

	default:
		return nil, fmt.Errorf("unknown event publisher %q", c.Publisher)
	}
}
