package service

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
	"tombola/pkg/requestcontext"
)

// Enter registers a batch of identities for the current round and returns
// the slot index of the first one; the batch occupies consecutive slots.
//
// payment must equal the entrance fee times the batch size, exactly. The
// payer need not be among the entrants; entering on behalf of others is
// allowed, and each entered identity refunds only its own slot.
//
// Errors: CodeWrongPayment, CodeDuplicateEntrant when any identity in the
// batch already holds an active slot or repeats within the batch,
// CodeValidation for an empty batch, CodeUnauthorized for a missing payer.
func (s *Service) Enter(ctx context.Context, payer domain.Identity, entrants []domain.Identity, payment uint64) (int, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.enter",
		trace.WithAttributes(attribute.Int("raffle.batch_size", len(entrants))))
	defer span.End()

	firstSlot := 0
	err := s.run(ctx, "enter", func(ctx context.Context, sc *execScope) error {
		if payer.IsZero() {
			return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
		}
		if len(entrants) == 0 {
			return dErrors.New(dErrors.CodeValidation, "at least one entrant is required")
		}

		fee := sc.tx.Params().EntranceFee
		count := uint64(len(entrants))
		if count > math.MaxUint64/fee {
			return dErrors.New(dErrors.CodeWrongPayment, "batch size exceeds what one payment can cover")
		}
		if required := fee * count; payment != required {
			return dErrors.New(dErrors.CodeWrongPayment, "payment must equal the entrance fee times the batch size")
		}

		first, err := sc.tx.AddEntrants(entrants)
		if err != nil {
			return translateLedger(err)
		}
		if err := sc.tx.CreditPool(payment); err != nil {
			return translateLedger(err)
		}

		ev := eventlog.New(eventlog.KindEntryAccepted, sc.tx.Epoch(), requestcontext.Now(ctx))
		ev.Actor = payer
		ev.Subjects = append([]domain.Identity(nil), entrants...)
		ev.Slot = first
		ev.Amount = payment
		ev.RequestID = requestcontext.RequestID(ctx)
		sc.emit(ev)

		firstSlot = first
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return firstSlot, nil
}
