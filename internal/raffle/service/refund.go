package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
	"tombola/pkg/requestcontext"
)

// Refund returns an active entrant's entrance fee and releases their slot.
// Slot indices never shift: the refunded slot stays in place, inactive, so
// other entrants keep the indices they were given.
//
// The slot is deactivated and the pool debited before the rail is asked to
// deliver. A reentrant refund arriving during delivery therefore finds the
// slot already inactive and fails with CodeAlreadyRefunded; it cannot drain
// the pool a second time.
//
// Errors: CodeInvalidIndex, CodeUnauthorized when the caller does not hold
// the slot, CodeAlreadyRefunded, CodeTransferRejected.
func (s *Service) Refund(ctx context.Context, caller domain.Identity, slotIndex int) error {
	ctx, span := s.tracer.Start(ctx, "raffle.refund",
		trace.WithAttributes(attribute.Int("raffle.slot", slotIndex)))
	defer span.End()

	err := s.run(ctx, "refund", func(ctx context.Context, sc *execScope) error {
		if caller.IsZero() {
			return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
		}

		holder, active, err := sc.tx.IdentityAt(slotIndex)
		if err != nil {
			return translateLedger(err)
		}
		if holder != caller {
			return dErrors.New(dErrors.CodeUnauthorized, "slot belongs to a different identity")
		}
		if !active {
			return dErrors.New(dErrors.CodeAlreadyRefunded, "slot was already refunded")
		}

		fee := sc.tx.Params().EntranceFee
		if err := sc.tx.DeactivateSlot(slotIndex); err != nil {
			return translateLedger(err)
		}
		if err := sc.tx.DebitPool(fee); err != nil {
			return translateLedger(err)
		}

		transfer := models.Transfer{
			ID:        domain.NewTransferID(),
			Kind:      models.TransferRefund,
			Recipient: holder,
			Amount:    fee,
			Epoch:     sc.tx.Epoch(),
		}

		ev := eventlog.New(eventlog.KindRefundIssued, sc.tx.Epoch(), requestcontext.Now(ctx))
		ev.Actor = caller
		ev.Subjects = []domain.Identity{holder}
		ev.Slot = slotIndex
		ev.Amount = fee
		ev.Transfer = transfer.ID
		ev.RequestID = requestcontext.RequestID(ctx)
		sc.emit(ev)

		return s.transferOut(ctx, transfer)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}
