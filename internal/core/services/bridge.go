package services

import (
	"context"
	"log/slog"

	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
)

// ProgressBridge carries progress events from pipeline worker goroutines into
// the job registry through a bounded channel with a single consumer, so
// events for one job are applied in the order its worker produced them.
//
// Notify never blocks the worker: when the channel is full the event is
// dropped and logged, which is safe because progress is monotonic and the
// terminal transition goes through the registry directly under its lock.
// Stale events (job already terminal) and unknown ids are absorbed by the
// registry — they are never surfaced to the worker as errors.
type ProgressBridge struct {
	logger *slog.Logger
	reg    *JobRegistry
	bus    *EventBus
	events chan domain.ProgressEvent
}

func NewProgressBridge(logger *slog.Logger, reg *JobRegistry, bus *EventBus) *ProgressBridge {
	return &ProgressBridge{
		logger: logger,
		reg:    reg,
		bus:    bus,
		events: make(chan domain.ProgressEvent, 256),
	}
}

// Notify queues a progress event. Callable from any goroutine.
func (b *ProgressBridge) Notify(event domain.ProgressEvent) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("progress channel full, dropping event", "job_id", string(event.JobID))
	}
}

// Run consumes events until ctx is cancelled.
func (b *ProgressBridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-b.events:
			b.apply(event)
		}
	}
}

func (b *ProgressBridge) apply(event domain.ProgressEvent) {
	b.reg.ApplyProgress(event)
	if b.bus != nil {
		b.bus.Publish(Event{
			JobID:   string(event.JobID),
			Type:    EventTypeProgress,
			Message: event.Message,
			Payload: event.Summary,
		})
	}
}
