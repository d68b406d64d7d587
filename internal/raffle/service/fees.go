package service

import (
	"context"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
	"tombola/pkg/requestcontext"
)

// WithdrawFees pays the entire accrued fee balance out to the fee recipient
// and returns the withdrawn amount.
//
// Only the configured fee recipient may withdraw. The balance is zeroed
// before the rail delivers, so a reentrant withdrawal during delivery finds
// nothing left to claim. The prize pool is untouched; fees and pool are
// separate books.
//
// Errors: CodeUnauthorized, CodeInsufficientPool when nothing has accrued,
// CodeTransferRejected.
func (s *Service) WithdrawFees(ctx context.Context, caller domain.Identity) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.withdraw_fees")
	defer span.End()

	var amount uint64
	err := s.run(ctx, "withdraw_fees", func(ctx context.Context, sc *execScope) error {
		if caller.IsZero() {
			return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
		}
		if caller != sc.tx.FeeRecipient() {
			return dErrors.New(dErrors.CodeUnauthorized, "only the fee recipient may withdraw fees")
		}

		amount = sc.tx.FeeBalance()
		if amount == 0 {
			return dErrors.New(dErrors.CodeInsufficientPool, "no fees have accrued")
		}
		if err := sc.tx.DebitFees(amount); err != nil {
			return translateLedger(err)
		}

		transfer := models.Transfer{
			ID:        domain.NewTransferID(),
			Kind:      models.TransferFeeWithdrawal,
			Recipient: caller,
			Amount:    amount,
			Epoch:     sc.tx.Epoch(),
		}

		ev := eventlog.New(eventlog.KindFeesWithdrawn, sc.tx.Epoch(), requestcontext.Now(ctx))
		ev.Actor = caller
		ev.Subjects = []domain.Identity{caller}
		ev.Amount = amount
		ev.Transfer = transfer.ID
		ev.RequestID = requestcontext.RequestID(ctx)
		sc.emit(ev)

		return s.transferOut(ctx, transfer)
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return amount, nil
}
