package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
)

func makeEvent(eventType models.JobEventType) *models.JobEvent {
	return &models.JobEvent{
		EventType:   eventType,
		JobID:       models.NewJobID(),
		ProjectName: "demo",
		Branch:      "main",
		Timestamp:   models.NewTime(time.Now()),
	}
}

func TestBroadcastToAllSubscribers(t *testing.T) {
	service := NewEventService(logger.NoOpLogFactory)

	first, cancelFirst := service.SubscribeJobEvents()
	defer cancelFirst()
	second, cancelSecond := service.SubscribeJobEvents()
	defer cancelSecond()

	event := makeEvent(models.JobEventCreated)
	service.PublishJobEvent(event)

	require.Equal(t, event, <-first)
	require.Equal(t, event, <-second)
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	service := NewEventService(logger.NoOpLogFactory)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			service.PublishJobEvent(makeEvent(models.JobEventRunning))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}

func TestSlowSubscriberMissesEventsSilently(t *testing.T) {
	service := NewEventService(logger.NoOpLogFactory)
	ch, cancel := service.SubscribeJobEvents()
	defer cancel()

	// Overfill the subscriber's buffer without draining it
	for i := 0; i < 150; i++ {
		service.PublishJobEvent(makeEvent(models.JobEventCreated))
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			require.Equal(t, 100, received)
			return
		}
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	service := NewEventService(logger.NoOpLogFactory)
	ch, cancel := service.SubscribeLogChunks()
	cancel()
	// Channel is closed on cancel
	_, ok := <-ch
	require.False(t, ok)
	// Publishing after cancel must not panic
	service.PublishLogChunk(&models.LogChunk{JobID: models.NewJobID(), StepType: models.LogTypeMainScript, Chunk: "x"})
	// Cancel is idempotent
	cancel()
}
