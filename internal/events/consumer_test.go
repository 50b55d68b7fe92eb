package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mutex    sync.Mutex
	requests []GenerationRequestedEvent
	done     chan struct{}
}

func (p *recordingProcessor) ProcessGenerationRequest(_ context.Context, request GenerationRequestedEvent) error {
	p.mutex.Lock()
	p.requests = append(p.requests, request)
	p.mutex.Unlock()
	p.done <- struct{}{}
	return nil
}

func TestJobConsumer_DeliversJobRequests(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NewSlogLogger(testLogger()))
	defer pubSub.Close()

	processor := &recordingProcessor{done: make(chan struct{}, 4)}
	consumer, err := NewJobConsumer(pubSub, processor, ConsumerConfig{Topic: testTopics.Jobs, Logger: testLogger()})
	require.NoError(t, err)

	go func() { _ = consumer.Run(ctx) }()
	defer consumer.Close()

	select {
	case <-consumer.Running():
	case <-ctx.Done():
		t.Fatal("router did not start")
	}

	// Garbage and non job events are acknowledged without reaching the processor.
	require.NoError(t, pubSub.Publish(testTopics.Jobs, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	outcome, err := NewEventMessage(NewReportEvent(EventReportGenerated, nil))
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish(testTopics.Jobs, outcome))

	publisher := NewWatermillEventPublisher(pubSub, testTopics, testLogger())
	require.NoError(t, publisher.PublishReportEvent(ctx, NewReportEvent(EventReportGenerationRequested, GenerationRequestedEvent{
		JobID:   "job-9",
		BatchID: 3,
		JobType: "2",
	})))

	select {
	case <-processor.done:
	case <-ctx.Done():
		t.Fatal("job request was not processed")
	}

	processor.mutex.Lock()
	defer processor.mutex.Unlock()
	require.Len(t, processor.requests, 1)
	assert.Equal(t, "job-9", processor.requests[0].JobID)
	assert.Equal(t, uint(3), processor.requests[0].BatchID)
	assert.Equal(t, "2", processor.requests[0].JobType)
}
