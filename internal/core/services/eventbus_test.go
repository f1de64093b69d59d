package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewEventBus(testLogger())

	events, unsub := bus.Subscribe("job-1")
	defer unsub()

	bus.Publish(Event{JobID: "job-1", Type: EventTypeProgress, Message: "step"})

	select {
	case e := <-events:
		assert.Equal(t, "step", e.Message)
		assert.NotZero(t, e.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventBus_OtherJobsUnaffected(t *testing.T) {
	bus := NewEventBus(testLogger())

	events, unsub := bus.Subscribe("job-1")
	defer unsub()

	bus.Publish(Event{JobID: "job-2", Type: EventTypeProgress})

	select {
	case <-events:
		t.Fatal("received event for a different job")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus(testLogger())

	events, unsub := bus.Subscribe("job-1")
	unsub()

	_, open := <-events
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	bus.Publish(Event{JobID: "job-1"})
}

func TestEventBus_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := NewEventBus(testLogger())

	_, unsub := bus.Subscribe("job-1")
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Publish(Event{JobID: "job-1", Type: EventTypeProgress})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}
