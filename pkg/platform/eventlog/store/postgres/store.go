package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tombola/pkg/domain"
	"tombola/pkg/platform/eventlog"
	txcontext "tombola/pkg/platform/tx"
)

// Store implements eventlog.Store using the transactional outbox pattern.
// Append writes to the outbox table; the relay worker publishes outbox rows
// to Kafka and the consumer side materializes them into raffle_events for
// querying. Kafka is the source of truth downstream of the outbox.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL event store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// payload is the JSON structure published to Kafka. Field names match
// eventlog.Event for proper deserialization by the consumer.
type payload struct {
	ID        string   `json:"ID"`
	Kind      string   `json:"Kind"`
	Category  string   `json:"Category"`
	Epoch     uint64   `json:"Epoch"`
	Actor     string   `json:"Actor,omitempty"`
	Subjects  []string `json:"Subjects,omitempty"`
	Slot      int      `json:"Slot"`
	Amount    uint64   `json:"Amount"`
	Transfer  string   `json:"Transfer,omitempty"`
	RequestID string   `json:"RequestID,omitempty"`
	Timestamp string   `json:"Timestamp"`
}

func encodePayload(event eventlog.Event) ([]byte, error) {
	p := payload{
		ID:        event.ID.String(),
		Kind:      string(event.Kind),
		Category:  string(event.Category),
		Epoch:     event.Epoch,
		Actor:     event.Actor.String(),
		Slot:      event.Slot,
		Amount:    event.Amount,
		RequestID: event.RequestID,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
	}
	for _, subject := range event.Subjects {
		p.Subjects = append(p.Subjects, subject.String())
	}
	if !event.Transfer.IsNil() {
		p.Transfer = event.Transfer.String()
	}
	return json.Marshal(p)
}

// Append writes an event to the outbox table for Kafka publishing. It joins
// a SQL transaction from the context when one is present.
func (s *Store) Append(ctx context.Context, event eventlog.Event) error {
	body, err := encodePayload(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	query := `
		INSERT INTO raffle_outbox (id, event_id, event_kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.New(), // outbox entry ID
		uuid.UUID(event.ID),
		string(event.Kind),
		body,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// AppendMaterialized inserts an event into the raffle_events table for
// querying. Used by the Kafka consumer side; idempotent via ON CONFLICT DO
// NOTHING so replays are harmless.
func (s *Store) AppendMaterialized(ctx context.Context, event eventlog.Event) error {
	query := `
		INSERT INTO raffle_events (
			id, kind, category, epoch, actor, subjects,
			slot, amount, transfer_id, request_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	subjects := make([]string, 0, len(event.Subjects))
	for _, subject := range event.Subjects {
		subjects = append(subjects, subject.String())
	}

	var transferID *uuid.UUID
	if !event.Transfer.IsNil() {
		tid := uuid.UUID(event.Transfer)
		transferID = &tid
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		string(event.Kind),
		string(event.Category),
		int64(event.Epoch),
		event.Actor.String(),
		pq.Array(subjects),
		event.Slot,
		int64(event.Amount),
		transferID,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert raffle event: %w", err)
	}
	return nil
}

// ListByEpoch returns the materialized events of one round in emission order.
func (s *Store) ListByEpoch(ctx context.Context, epoch uint64) ([]eventlog.Event, error) {
	query := selectEvents + `
		WHERE epoch = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, int64(epoch))
	if err != nil {
		return nil, fmt.Errorf("query raffle events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListRecent returns the N most recent materialized events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]eventlog.Event, error) {
	query := selectEvents + `
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query raffle events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

const selectEvents = `
		SELECT id, kind, category, epoch, actor, subjects,
		       slot, amount, transfer_id, request_id, occurred_at
		FROM raffle_events
`

func (s *Store) scanEvents(rows *sql.Rows) ([]eventlog.Event, error) {
	var events []eventlog.Event

	for rows.Next() {
		var (
			event      eventlog.Event
			eventID    uuid.UUID
			kind       string
			category   string
			epoch      int64
			actor      string
			subjects   pq.StringArray
			amount     int64
			transferID *uuid.UUID
		)

		err := rows.Scan(
			&eventID,
			&kind,
			&category,
			&epoch,
			&actor,
			&subjects,
			&event.Slot,
			&amount,
			&transferID,
			&event.RequestID,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raffle event: %w", err)
		}

		event.ID = domain.EventID(eventID)
		event.Kind = eventlog.Kind(kind)
		event.Category = eventlog.Category(category)
		event.Epoch = uint64(epoch)
		event.Actor = domain.Identity(actor)
		event.Amount = uint64(amount)
		for _, subject := range subjects {
			event.Subjects = append(event.Subjects, domain.Identity(subject))
		}
		if transferID != nil {
			event.Transfer = domain.TransferID(*transferID)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raffle events: %w", err)
	}

	return events, nil
}

// -----------------------------------------------------------------------------
// Outbox relay support
// -----------------------------------------------------------------------------

// OutboxEntry is one unpublished outbox row.
type OutboxEntry struct {
	ID      uuid.UUID
	Kind    string
	Payload []byte
}

// NextUnpublished returns up to limit outbox rows that have not been
// published to Kafka yet, oldest first.
func (s *Store) NextUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, event_kind, payload
		FROM raffle_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps outbox rows as delivered. Rows already stamped are
// left untouched, so redelivery after a crash is at-least-once.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE raffle_outbox
		SET published_at = $1
		WHERE id = ANY($2) AND published_at IS NULL
	`
	if _, err := s.db.ExecContext(ctx, query, time.Now(), pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
