package service_test

import (
	"context"
	"errors"
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
)

// =============================================================================
// Reentrancy
// =============================================================================
// The payment rail is the one place an operation hands control outside
// custody. These tests drive the service through a rail that calls straight
// back in mid-delivery, the way the classic drain-the-pot attack does, and
// check that a reentrant call can only ever see and join the already
// journaled state of the operation that dispatched the transfer.

// TestReentrantRefundCannotDoublePay re-enters Refund for the same slot
// while its own refund is being delivered. The slot was deactivated before
// the rail was called, so the nested attempt must bounce off
// AlreadyRefunded and the attacker is paid exactly once.
func (s *ServiceSuite) TestReentrantRefundCannotDoublePay() {
	s.enter("alice", "bob", "attacker")

	var nestedErrs []error
	s.rail.onDeliver = func(ctx context.Context, transfer models.Transfer) error {
		if transfer.Recipient != "attacker" {
			return nil
		}
		// Two more tries, like a looping receive hook would.
		for range 2 {
			nestedErrs = append(nestedErrs, s.svc.Refund(ctx, "attacker", 2))
		}
		return nil
	}

	s.Require().NoError(s.svc.Refund(s.ctx(s.start), "attacker", 2))

	s.Require().Len(nestedErrs, 2)
	for _, err := range nestedErrs {
		s.assertCode(err, dErrors.CodeAlreadyRefunded)
	}

	s.Len(s.rail.deliveredTo("attacker"), 1, "one refund, one payment")

	status := s.svc.RoundStatus(context.Background())
	s.Equal(2, status.ActiveEntrants)
	s.Equal(uint64(200), status.PoolBalance, "pool keeps covering alice and bob")
	s.assertBooksBalance()

	events := s.storedEvents()
	s.Require().Len(events, 2, "entry plus exactly one refund event")
	s.Equal(eventlog.KindRefundIssued, events[1].Kind)
}

// TestReentrantCallSeesEffectsAlreadyApplied reads the round mid-delivery:
// the refund's bookkeeping must already be visible before value moves.
func (s *ServiceSuite) TestReentrantCallSeesEffectsAlreadyApplied() {
	s.enter("alice", "bob")

	var seen models.RoundStatus
	s.rail.onDeliver = func(ctx context.Context, _ models.Transfer) error {
		seen = s.svc.RoundStatus(ctx)
		return nil
	}

	s.Require().NoError(s.svc.Refund(s.ctx(s.start), "alice", 0))

	s.Equal(1, seen.ActiveEntrants, "slot already inactive during delivery")
	s.Equal(uint64(100), seen.PoolBalance, "pool already debited during delivery")
}

// TestNestedEnterJoinsTheOpenOperation enters a new identity from inside a
// refund delivery. Both the refund and the nested entry belong to one unit
// of work and commit together.
func (s *ServiceSuite) TestNestedEnterJoinsTheOpenOperation() {
	s.enter("alice", "bob")

	var nestedErr error
	var nestedSlot int
	s.rail.onDeliver = func(ctx context.Context, _ models.Transfer) error {
		nestedSlot, nestedErr = s.svc.Enter(ctx, "newcomer", []domain.Identity{"newcomer"}, 100)
		return nil
	}

	s.Require().NoError(s.svc.Refund(s.ctx(s.start), "alice", 0))
	s.Require().NoError(nestedErr)
	s.Equal(2, nestedSlot)

	status := s.svc.RoundStatus(context.Background())
	s.Equal(2, status.ActiveEntrants, "bob plus the newcomer")
	s.Equal(uint64(200), status.PoolBalance)
	s.assertBooksBalance()

	events := s.storedEvents()
	s.Require().Len(events, 3)
	s.Equal(eventlog.KindRefundIssued, events[1].Kind, "outer event first")
	s.Equal(eventlog.KindEntryAccepted, events[2].Kind, "nested event after it")
}

// TestNestedFailureUnwindsOnlyItself fails a nested enter inside a refund
// delivery. The nested savepoint rolls back alone; the refund commits.
func (s *ServiceSuite) TestNestedFailureUnwindsOnlyItself() {
	s.enter("alice", "bob")

	var nestedErr error
	s.rail.onDeliver = func(ctx context.Context, _ models.Transfer) error {
		_, nestedErr = s.svc.Enter(ctx, "newcomer", []domain.Identity{"newcomer"}, 1)
		return nil
	}

	s.Require().NoError(s.svc.Refund(s.ctx(s.start), "alice", 0))
	s.assertCode(nestedErr, dErrors.CodeWrongPayment)

	status := s.svc.RoundStatus(context.Background())
	s.Equal(1, status.ActiveEntrants, "refund stands, failed nested entry does not")
	s.Equal(uint64(100), status.PoolBalance)
	_, ok := s.svc.SlotOf(context.Background(), "newcomer")
	s.False(ok)

	events := s.storedEvents()
	s.Require().Len(events, 2, "the failed nested operation left no event behind")
	s.Equal(eventlog.KindRefundIssued, events[1].Kind)
}

// TestRejectionDiscardsNestedWork lets the nested enter succeed and then
// rejects the outer delivery. All-or-nothing applies to the whole unit:
// the nested entry dies with the refund that hosted it.
func (s *ServiceSuite) TestRejectionDiscardsNestedWork() {
	s.enter("alice", "bob")

	s.rail.onDeliver = func(ctx context.Context, _ models.Transfer) error {
		_, err := s.svc.Enter(ctx, "newcomer", []domain.Identity{"newcomer"}, 100)
		s.Require().NoError(err, "nested enter itself succeeds")
		return errors.New("rail rejects after the callback")
	}

	err := s.svc.Refund(s.ctx(s.start), "alice", 0)
	s.assertCode(err, dErrors.CodeTransferRejected)

	status := s.svc.RoundStatus(context.Background())
	s.Equal(2, status.ActiveEntrants, "alice restored, newcomer gone")
	s.Equal(uint64(200), status.PoolBalance)
	_, ok := s.svc.SlotOf(context.Background(), "newcomer")
	s.False(ok, "nested work cannot outlive its failed host")
	s.assertBooksBalance()

	s.Len(s.storedEvents(), 1, "only the original entry event survives")
}

// TestReentrantDrawDuringPayout triggers another draw while the winner's
// payout is in flight. The concluded round is already rotated away, so the
// nested draw sees a fresh round whose deadline lies an hour out.
func (s *ServiceSuite) TestReentrantDrawDuringPayout() {
	s.enter("alice", "bob")

	var nestedErr error
	s.rail.onDeliver = func(ctx context.Context, _ models.Transfer) error {
		_, nestedErr = s.svc.DrawWinner(ctx)
		return nil
	}

	record, err := s.svc.DrawWinner(s.ctx(s.afterDeadline()))
	s.Require().NoError(err)
	s.Equal(uint64(1), record.Epoch)

	s.assertCode(nestedErr, dErrors.CodeRoundNotOver)
	s.Len(s.rail.delivered, 1, "exactly one payout")

	status := s.svc.RoundStatus(context.Background())
	s.Equal(uint64(2), status.Epoch)
}

// TestNestedDrawDiesWithItsHost runs a draw from inside a refund delivery
// and then has the rail reject the refund. The nested draw succeeded on its
// own terms, but it belongs to the refund's unit of work: the rotation
// rolls back and nothing of it, the archived record included, survives.
func (s *ServiceSuite) TestNestedDrawDiesWithItsHost() {
	s.enter("alice", "bob")

	var nestedErr error
	s.rail.onDeliver = func(ctx context.Context, transfer models.Transfer) error {
		if transfer.Kind != models.TransferRefund {
			return nil
		}
		_, nestedErr = s.svc.DrawWinner(ctx)
		return errors.New("rail rejects the refund")
	}

	err := s.svc.Refund(s.ctx(s.afterDeadline()), "alice", 0)
	s.assertCode(err, dErrors.CodeTransferRejected)
	s.Require().NoError(nestedErr, "the nested draw itself went through")

	status := s.svc.RoundStatus(context.Background())
	s.Equal(uint64(1), status.Epoch, "rotation rolled back with the refund")
	s.Equal(2, status.ActiveEntrants)
	s.Equal(uint64(200), status.PoolBalance)
	s.assertBooksBalance()

	_, err = s.svc.RoundByEpoch(context.Background(), 1)
	s.assertCode(err, dErrors.CodeNotFound)
	s.Empty(s.storedEvents()[1:], "no event from either half of the failed unit")

	// The round is intact and its deadline has passed, so the real draw
	// still happens, and only this one reaches the archive.
	s.rail.onDeliver = nil
	record, err := s.svc.DrawWinner(s.ctx(s.afterDeadline()))
	s.Require().NoError(err)
	s.Equal(2, record.Entrants)

	archived, err := s.svc.RoundByEpoch(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal(record.Winner, archived.Winner)
}

// TestReentrantWithdrawCannotDoubleDrain re-enters WithdrawFees during the
// withdrawal's own delivery. The balance was zeroed first, so the nested
// attempt finds nothing.
func (s *ServiceSuite) TestReentrantWithdrawCannotDoubleDrain() {
	s.drawFees()

	var nestedErr error
	s.rail.onDeliver = func(ctx context.Context, transfer models.Transfer) error {
		if transfer.Kind != models.TransferFeeWithdrawal {
			return nil
		}
		_, nestedErr = s.svc.WithdrawFees(ctx, "treasury")
		return nil
	}

	amount, err := s.svc.WithdrawFees(s.ctx(s.afterDeadline()), "treasury")
	s.Require().NoError(err)
	s.Equal(uint64(60), amount)

	s.assertCode(nestedErr, dErrors.CodeInsufficientPool)

	withdrawals := 0
	for _, t := range s.rail.delivered {
		if t.Kind == models.TransferFeeWithdrawal {
			withdrawals++
		}
	}
	s.Equal(1, withdrawals)
}

// TestReentrantRefundOfAnotherSlot drains a different, legitimate slot from
// inside a delivery. That one is a valid nested operation and must work,
// with both refunds settled in one commit.
func (s *ServiceSuite) TestReentrantRefundOfAnotherSlot() {
	s.enter("alice", "bob")

	var nestedErr error
	s.rail.onDeliver = func(ctx context.Context, transfer models.Transfer) error {
		if transfer.Recipient != "alice" {
			return nil
		}
		nestedErr = s.svc.Refund(ctx, "bob", 1)
		return nil
	}

	s.Require().NoError(s.svc.Refund(s.ctx(s.start), "alice", 0))
	s.Require().NoError(nestedErr)

	status := s.svc.RoundStatus(context.Background())
	s.Equal(0, status.ActiveEntrants)
	s.Equal(uint64(0), status.PoolBalance)
	s.Len(s.rail.delivered, 2)
	s.Len(s.storedEvents(), 3, "entry, then two refund events")
}

// TestDeadlineConsistentWithinOperation pins the operation clock: the same
// draw that opened the round also stamps its start, so a reentrant status
// read during payout sees the new round anchored at the draw time.
func (s *ServiceSuite) TestDeadlineConsistentWithinOperation() {
	s.enter("alice")

	drawTime := s.afterDeadline().Add(17 * time.Minute)
	var seenStart time.Time
	s.rail.onDeliver = func(ctx context.Context, _ models.Transfer) error {
		seenStart = s.svc.RoundStatus(ctx).RoundStart
		return nil
	}

	_, err := s.svc.DrawWinner(s.ctx(drawTime))
	s.Require().NoError(err)
	s.Equal(drawTime, seenStart)
}
