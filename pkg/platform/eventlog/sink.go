package eventlog

import (
	"context"
	"errors"
	"log/slog"
)

// Sink receives events after the operation that produced them committed.
// Implementations must not call back into the raffle service and should
// return quickly; anything slow belongs behind a worker.
type Sink interface {
	Publish(ctx context.Context, events ...Event) error
}

// Store persists events for querying.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEpoch(ctx context.Context, epoch uint64) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// SlogSink writes every event to a structured logger. It is the default
// sink so a bare service still has an observable trail.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Publish(ctx context.Context, events ...Event) error {
	for _, ev := range events {
		s.logger.InfoContext(ctx, "raffle event",
			"event_id", ev.ID.String(),
			"kind", string(ev.Kind),
			"category", string(ev.Category),
			"epoch", ev.Epoch,
			"actor", ev.Actor.String(),
			"amount", ev.Amount,
			"request_id", ev.RequestID,
		)
	}
	return nil
}

// Fanout publishes to every sink and joins their errors, so one failing
// sink never starves the others.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, events ...Event) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StoreSink appends events synchronously to a store. Intended for memory
// stores and tests; database-backed stores belong behind the worker.
type StoreSink struct {
	store Store
}

func NewStoreSink(store Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Publish(ctx context.Context, events ...Event) error {
	for _, ev := range events {
		if err := s.store.Append(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
