// Package worker moves events from the in-process emission path to durable
// sinks. The Worker drains a bounded inbox into the store so publishing
// never blocks a raffle operation; the Relay ships stored outbox rows to
// Kafka.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tombola/pkg/platform/eventlog"
)

// Worker consumes events from a bounded inbox and persists them. It keeps
// background processing off the raffle session's lock.
type Worker struct {
	store  eventlog.Store
	inbox  chan eventlog.Event
	logger *slog.Logger
}

// NewWorker builds a worker with an inbox of the given capacity.
func NewWorker(store eventlog.Store, capacity int, logger *slog.Logger) *Worker {
	if capacity <= 0 {
		capacity = 256
	}
	return &Worker{
		store:  store,
		inbox:  make(chan eventlog.Event, capacity),
		logger: logger,
	}
}

// Publish enqueues events without blocking. When the inbox is full the
// overflow is dropped and reported; the ledger, not the event trail, is the
// book of record, so a stalled sink must never stall custody operations.
func (w *Worker) Publish(_ context.Context, events ...eventlog.Event) error {
	dropped := 0
	for _, ev := range events {
		select {
		case w.inbox <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("event inbox full: dropped %d of %d events", dropped, len(events))
	}
	return nil
}

// Run drains the inbox until ctx is canceled. Store failures are logged and
// the worker keeps going; returning would silently end the trail for all
// later events.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist event",
					"error", err,
					"event_id", event.ID.String(),
					"kind", string(event.Kind),
				)
			}
		}
	}
}
