// Package eventlog defines the observable events a raffle session emits and
// the sinks that carry them. Events are emitted exactly once per successful
// operation, after the ledger state they describe is final; a failed or
// rolled-back operation emits nothing.
package eventlog

import (
	"time"

	"tombola/pkg/domain"
)

// Category classifies events by their primary purpose. This enables
// different retention policies, storage backends, and routing.
type Category string

const (
	// CategoryLedger covers events that describe money entering or
	// leaving custody. These require durable storage and long retention.
	// Examples: refunds, winner payouts, fee withdrawals.
	CategoryLedger Category = "ledger"

	// CategorySecurity covers administrative actions relevant to
	// monitoring and forensics. Examples: configuration changes.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine, high-volume activity that can
	// be sampled or aggregated with shorter retention. Example: entries.
	CategoryOperations Category = "operations"
)

// Kind names one observable event.
type Kind string

const (
	// KindEntryAccepted: a batch of identities entered the round and the
	// pool absorbed their payment.
	KindEntryAccepted Kind = "entry_accepted"

	// KindRefundIssued: a slot was deactivated and its fee returned.
	KindRefundIssued Kind = "refund_issued"

	// KindWinnerSelected: a round concluded with a winner and the pool
	// was split.
	KindWinnerSelected Kind = "winner_selected"

	// KindFeesWithdrawn: the fee recipient drained the accrued balance.
	KindFeesWithdrawn Kind = "fees_withdrawn"

	// KindConfigUpdated: the session configuration changed (staged or
	// immediate).
	KindConfigUpdated Kind = "config_updated"

	// KindRoundOpened: a fresh round started accepting entries after a
	// draw concluded the previous one.
	KindRoundOpened Kind = "round_opened"
)

// kindCategories maps each kind to its category and doubles as the
// known-kind allowlist.
var kindCategories = map[Kind]Category{
	KindEntryAccepted:  CategoryOperations,
	KindRefundIssued:   CategoryLedger,
	KindWinnerSelected: CategoryLedger,
	KindFeesWithdrawn:  CategoryLedger,
	KindConfigUpdated:  CategorySecurity,
	KindRoundOpened:    CategoryOperations,
}

// Category returns the category for this kind. Unknown kinds default to
// CategoryOperations.
func (k Kind) Category() Category {
	if cat, ok := kindCategories[k]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture one observable action. Keep
// it transport-agnostic so stores and sinks can fan out.
//
// Field usage varies by kind: entries carry the batch and the payment,
// refunds carry the slot and the returned fee, winner and fee events carry
// the settled amount and transfer reference.
type Event struct {
	ID        domain.EventID
	Kind      Kind
	Category  Category
	Epoch     uint64
	Actor     domain.Identity
	Subjects  []domain.Identity
	Slot      int
	Amount    uint64
	Transfer  domain.TransferID
	RequestID string
	Timestamp time.Time
}

// New builds an event with a fresh ID, the kind's category and the given
// timestamp. Callers fill the kind-specific fields on the result; Slot
// starts at -1, meaning no slot is involved.
func New(kind Kind, epoch uint64, at time.Time) Event {
	return Event{
		ID:        domain.NewEventID(),
		Kind:      kind,
		Category:  kind.Category(),
		Epoch:     epoch,
		Slot:      -1,
		Timestamp: at,
	}
}
