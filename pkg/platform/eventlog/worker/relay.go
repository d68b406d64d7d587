package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tombola/pkg/platform/eventlog/store/postgres"
)

// Producer publishes one payload to the event topic. Implemented by the
// Kafka client wrapper.
type Producer interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Relay polls the outbox for unpublished rows and ships them to Kafka.
// Rows are marked published only after the broker acknowledges, so delivery
// is at-least-once and consumers must deduplicate by event ID.
type Relay struct {
	store    *postgres.Store
	producer Producer
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewRelay(store *postgres.Store, producer Producer, interval time.Duration, logger *slog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	return &Relay{
		store:    store,
		producer: producer,
		interval: interval,
		batch:    100,
		logger:   logger,
	}
}

// Run polls until ctx is canceled. Errors are logged and retried on the
// next tick; the outbox keeps the backlog.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		entries, err := r.store.NextUnpublished(ctx, r.batch)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		published := make([]uuid.UUID, 0, len(entries))
		for _, entry := range entries {
			if err := r.producer.Publish(ctx, entry.Kind, entry.Payload); err != nil {
				// Stop the pass here; rows stay unpublished and the
				// next tick retries from the oldest.
				r.logger.WarnContext(ctx, "event publish failed",
					"error", err,
					"outbox_id", entry.ID.String(),
				)
				break
			}
			published = append(published, entry.ID)
		}

		if err := r.store.MarkPublished(ctx, published); err != nil {
			return err
		}
		if len(published) < len(entries) {
			return nil
		}
	}
}
