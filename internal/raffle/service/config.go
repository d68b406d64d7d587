package service

import (
	"context"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
	"tombola/pkg/requestcontext"
)

// Reconfigure applies an administrative update and returns the live
// configuration after it.
//
// Round parameters never change mid-round. They are staged and take effect
// when the current round rotates, because the refund half of the pool
// invariant needs the fee each active entrant actually paid. A second
// update before rotation edits the staged set, not the live one. The fee
// recipient switches immediately: no live-slot bookkeeping depends on it,
// and from that moment the new recipient holds the withdraw and
// reconfigure rights.
//
// Errors: CodeUnauthorized when the caller is not the fee recipient,
// CodeValidation for an empty update or one that violates parameter bounds.
func (s *Service) Reconfigure(ctx context.Context, caller domain.Identity, update models.ConfigUpdate) (models.Config, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.reconfigure")
	defer span.End()

	var result models.Config
	err := s.run(ctx, "reconfigure", func(ctx context.Context, sc *execScope) error {
		if caller.IsZero() {
			return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
		}
		if caller != sc.tx.FeeRecipient() {
			return dErrors.New(dErrors.CodeUnauthorized, "only the fee recipient may reconfigure the session")
		}
		if update.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "update contains no changes")
		}

		if update.FeeRecipient != nil {
			if update.FeeRecipient.IsZero() {
				return dErrors.New(dErrors.CodeValidation, "fee recipient cannot be empty")
			}
			if err := sc.tx.SetFeeRecipient(*update.FeeRecipient); err != nil {
				return translateLedger(err)
			}
		}

		if update.TouchesParams() {
			base := sc.tx.Params()
			if pending, ok := sc.tx.PendingParams(); ok {
				base = pending
			}
			params := update.ApplyTo(base)
			if err := params.Validate(); err != nil {
				return err
			}
			if err := sc.tx.StageParams(params); err != nil {
				return translateLedger(err)
			}
		}

		ev := eventlog.New(eventlog.KindConfigUpdated, sc.tx.Epoch(), requestcontext.Now(ctx))
		ev.Actor = caller
		ev.RequestID = requestcontext.RequestID(ctx)
		sc.emit(ev)

		result = models.Config{
			RoundParams:  sc.tx.Params(),
			FeeRecipient: sc.tx.FeeRecipient(),
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return models.Config{}, err
	}
	return result, nil
}
