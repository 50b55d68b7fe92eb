package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// JobProcessor handles report generation requests taken off the job topic.
type JobProcessor interface {
	ProcessGenerationRequest(ctx context.Context, request GenerationRequestedEvent) error
}

type ConsumerConfig struct {
	Topic      string
	MaxRetries int
	Logger     *slog.Logger
}

// JobConsumer runs a Watermill router that feeds job requests into a
// JobProcessor.
type JobConsumer struct {
	router    *message.Router
	processor JobProcessor
	logger    *slog.Logger
}

func NewJobConsumer(subscriber message.Subscriber, processor JobProcessor, config ConsumerConfig) (*JobConsumer, error) {
	wmLogger := watermill.NewSlogLogger(config.Logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job router: %w", err)
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      maxRetries,
			InitialInterval: 500 * time.Millisecond,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)

	c := &JobConsumer{
		router:    router,
		processor: processor,
		logger:    config.Logger.With("component", "job_consumer"),
	}
	router.AddNoPublisherHandler("report_job_handler", config.Topic, subscriber, c.handle)
	return c, nil
}

func (c *JobConsumer) handle(msg *message.Message) error {
	event, err := DecodeEventMessage(msg)
	if err != nil {
		// A payload that cannot be decoded never will be; drop it.
		c.logger.Error("Dropping undecodable job message", "message_id", msg.UUID, "error", err)
		return nil
	}
	if !event.IsJobRequest() {
		c.logger.Debug("Ignoring non job event", "event_id", event.ID, "event_type", event.Type)
		return nil
	}

	var request GenerationRequestedEvent
	if err := event.DecodeData(&request); err != nil {
		c.logger.Error("Dropping malformed job request", "event_id", event.ID, "error", err)
		return nil
	}

	c.logger.Info("Processing report job", "job_id", request.JobID, "batch_id", request.BatchID, "job_type", request.JobType)
	return c.processor.ProcessGenerationRequest(msg.Context(), request)
}

// Run blocks until ctx is cancelled or the router stops.
func (c *JobConsumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once the router has started its handlers.
func (c *JobConsumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *JobConsumer) Close() error {
	return c.router.Close()
}
