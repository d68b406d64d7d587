package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tombola/internal/raffle/engine"
	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
	"tombola/pkg/requestcontext"
)

// DrawWinner closes the current round once its deadline has passed and
// returns the concluded round's record.
//
// One value is consumed from the randomness source, after all preconditions
// pass, and reduced modulo the active entrant count; refunded slots are
// skipped entirely. The pool sweep, the fee accrual and the rotation into
// the next round are all journaled before the winner's payout is
// dispatched, so a reentrant call during delivery finds the concluded
// round already closed and the next one empty.
//
// Drawing needs no credential. The deadline check alone gates it, and the
// payout goes to the selected winner regardless of who triggered the draw.
//
// Errors: CodeRoundNotOver, CodeNoEntrants, CodeTransferRejected,
// CodeInternal when randomness or prize issuance fails.
func (s *Service) DrawWinner(ctx context.Context) (*models.RoundRecord, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.draw_winner")
	defer span.End()
	started := time.Now()

	var record models.RoundRecord
	err := s.run(ctx, "draw_winner", func(ctx context.Context, sc *execScope) error {
		now := requestcontext.Now(ctx)
		plan, err := engine.Plan(sc.tx, func() (uint64, error) {
			return s.random.Uint64(ctx)
		}, now)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int64("raffle.concluded_epoch", int64(plan.ConcludedEpoch)))

		record = models.RoundRecord{
			Epoch:       plan.ConcludedEpoch,
			Winner:      plan.Winner,
			Entrants:    plan.Entrants,
			PoolAtClose: plan.PoolAtClose,
			WinnerShare: plan.WinnerShare,
			FeeShare:    plan.FeeShare,
			DrawnAt:     now,
		}

		ev := eventlog.New(eventlog.KindWinnerSelected, plan.ConcludedEpoch, now)
		ev.Actor = requestcontext.Caller(ctx)
		ev.Subjects = []domain.Identity{plan.Winner}
		ev.Slot = plan.WinnerSlot
		ev.Amount = plan.WinnerShare
		ev.RequestID = requestcontext.RequestID(ctx)

		// A zero winner share (WinnerPercent 0) settles entirely into
		// fees; there is nothing to deliver and no transfer to record.
		var transfer models.Transfer
		payout := plan.WinnerShare > 0
		if payout {
			transfer = models.Transfer{
				ID:        domain.NewTransferID(),
				Kind:      models.TransferWinnerPayout,
				Recipient: plan.Winner,
				Amount:    plan.WinnerShare,
				Epoch:     plan.ConcludedEpoch,
			}
			ev.Transfer = transfer.ID
		}
		sc.emit(ev)

		opened := eventlog.New(eventlog.KindRoundOpened, plan.OpenedEpoch, now)
		opened.Actor = requestcontext.Caller(ctx)
		opened.RequestID = requestcontext.RequestID(ctx)
		sc.emit(opened)

		if payout {
			if err := s.transferOut(ctx, transfer); err != nil {
				return err
			}
		}
		if s.prizes != nil {
			if err := s.prizes.Issue(ctx, plan.Winner, plan.ConcludedEpoch); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "prize issuance failed")
			}
		}

		sc.onCommit(func(ctx context.Context) {
			s.archiveRound(ctx, record)
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDraw(time.Since(started))
	}
	return &record, nil
}

// archiveRound persists a concluded round after its draw committed. The
// ledger is the book of record; an archive failure is logged, the draw
// stands.
func (s *Service) archiveRound(ctx context.Context, record models.RoundRecord) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "failed to archive concluded round",
			"epoch", record.Epoch,
			"error", err,
		)
	}
}
