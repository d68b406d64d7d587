// Package engine plans the close of a raffle round: it checks the draw
// preconditions, picks the winner from the active entrants, splits the pool
// and applies the closing mutations to the ledger transaction. It performs
// no transfers itself; the caller settles the returned plan only after the
// transaction is final.
package engine

import (
	"time"

	"tombola/internal/raffle/ledger"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

// DrawPlan is the finalized outcome of one round. All ledger effects are
// already applied (journaled) when Plan returns it: the pool is swept, the
// fee share is accrued and the next round is open.
type DrawPlan struct {
	Winner     domain.Identity
	WinnerSlot int
	Entrants   int

	PoolAtClose uint64
	WinnerShare uint64
	FeeShare    uint64

	ConcludedEpoch uint64
	OpenedEpoch    uint64
}

// RandFunc supplies one draw value on demand. Plan calls it only after all
// preconditions pass, so a refused draw never consumes randomness.
type RandFunc func() (uint64, error)

// Plan closes the current round inside tx.
//
// Checks, in order: the round deadline must have passed (now at or after
// start + duration), there must be at least one active entrant and no fewer
// than the configured minimum, and the pool invariant must hold. Only then
// is one value drawn from rand and reduced modulo the active count, so
// every active entrant maps to exactly one residue.
//
// Errors: CodeRoundNotOver, CodeNoEntrants, CodeInvariantViolation,
// CodeInternal when the randomness source fails.
func Plan(tx *ledger.Tx, rand RandFunc, now time.Time) (*DrawPlan, error) {
	params := tx.Params()
	deadline := tx.RoundStart().Add(params.RoundDuration)
	if now.Before(deadline) {
		return nil, dErrors.New(dErrors.CodeRoundNotOver, "round deadline has not passed")
	}

	active := tx.ActiveCount()
	if active == 0 {
		return nil, dErrors.New(dErrors.CodeNoEntrants, "no active entrants to draw from")
	}
	if active < params.MinEntrants {
		return nil, dErrors.New(dErrors.CodeNoEntrants, "active entrants below configured minimum")
	}

	if err := tx.CheckIntegrity(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "refusing draw on inconsistent ledger")
	}

	raw, err := rand()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "randomness source failed")
	}

	winner, winnerSlot, err := tx.ActiveIdentityAt(int(raw % uint64(active)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "winner lookup failed")
	}

	pool := tx.PoolBalance()
	winnerShare := split(pool, params.WinnerPercent)
	feeShare := pool - winnerShare
	concluded := tx.Epoch()

	if err := tx.DebitPool(pool); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "failed to sweep pool")
	}
	if err := tx.CreditFees(feeShare); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "failed to accrue fee share")
	}
	opened, err := tx.RotateRound(now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "failed to open next round")
	}

	return &DrawPlan{
		Winner:         winner,
		WinnerSlot:     winnerSlot,
		Entrants:       active,
		PoolAtClose:    pool,
		WinnerShare:    winnerShare,
		FeeShare:       feeShare,
		ConcludedEpoch: concluded,
		OpenedEpoch:    opened,
	}, nil
}

// split returns floor(pool * percent / 100) without overflowing uint64.
// Decomposing pool as 100*q + r keeps every intermediate product in range:
// q*percent <= pool and r*percent < 10_000.
//
// The truncated remainder of the division is deliberately left in the pool
// side of the subtraction, so it accrues to the fee share. Conservation
// (winner share + fee share == pool) is exact.
func split(pool, percent uint64) uint64 {
	q, r := pool/100, pool%100
	return q*percent + r*percent/100
}
