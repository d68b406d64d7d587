// Package ledger is the in-memory book of record for one raffle session:
// the entrant registry of the current round plus the prize pool and accrued
// fee balances.
//
// The ledger itself performs no authorization and no external calls. Callers
// read directly, but every mutation goes through a Tx whose journal makes a
// whole operation atomic: either the Tx commits and all of its mutations
// stand, or it rolls back and the ledger is byte-for-byte what it was before.
// Services build their checks-then-effects discipline on top of that.
package ledger

import (
	"errors"
	"math"
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
)

// Sentinel errors returned by ledger operations. Services translate these
// into coded domain errors at the boundary.
var (
	ErrIndexOutOfRange    = errors.New("slot index out of range")
	ErrSlotNotActive      = errors.New("slot is not active")
	ErrDuplicateIdentity  = errors.New("identity already active this round")
	ErrInsufficientFunds  = errors.New("balance below requested amount")
	ErrBalanceOverflow    = errors.New("balance would overflow")
	ErrLedgerInconsistent = errors.New("ledger state inconsistent")
	ErrTxDone             = errors.New("transaction already finished")
)

// Ledger holds all custodial state of a raffle session.
//
// Not safe for concurrent use; the owning service serializes access.
type Ledger struct {
	reg *Registry

	pool uint64
	fees uint64

	params  models.RoundParams
	pending *models.RoundParams

	feeRecipient domain.Identity
	roundStart   time.Time
}

// New builds a ledger with round 1 open as of now. cfg must already be
// validated.
func New(cfg models.Config, now time.Time) *Ledger {
	return &Ledger{
		reg:          newRegistry(),
		params:       cfg.RoundParams,
		feeRecipient: cfg.FeeRecipient,
		roundStart:   now,
	}
}

// Begin opens a journaled transaction over the ledger. Only one Tx may be
// live at a time; the owning service's lock enforces that.
func (l *Ledger) Begin() *Tx {
	return &Tx{l: l}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (l *Ledger) Epoch() uint64 { return l.reg.Epoch() }

func (l *Ledger) SlotCount() int { return l.reg.SlotCount() }

func (l *Ledger) ActiveCount() int { return l.reg.ActiveCount() }

func (l *Ledger) PoolBalance() uint64 { return l.pool }

func (l *Ledger) FeeBalance() uint64 { return l.fees }

func (l *Ledger) RoundStart() time.Time { return l.roundStart }

func (l *Ledger) Params() models.RoundParams { return l.params }

// PendingParams returns the staged parameters, if any.
func (l *Ledger) PendingParams() (models.RoundParams, bool) {
	if l.pending == nil {
		return models.RoundParams{}, false
	}
	return *l.pending, true
}

func (l *Ledger) FeeRecipient() domain.Identity { return l.feeRecipient }

func (l *Ledger) IdentityAt(i int) (domain.Identity, bool, error) {
	return l.reg.IdentityAt(i)
}

func (l *Ledger) ActiveIdentityAt(n int) (domain.Identity, int, error) {
	return l.reg.ActiveIdentityAt(n)
}

func (l *Ledger) SlotOf(id domain.Identity) (int, bool) {
	return l.reg.SlotOf(id)
}

func (l *Ledger) HasActive(id domain.Identity) bool {
	return l.reg.HasActive(id)
}

// CheckIntegrity verifies the pool invariant: the pool holds exactly the
// entrance fee for every active slot. The fee is frozen per round, so the
// relation must hold between any two operations.
//
// Errors: ErrLedgerInconsistent describing the mismatch.
func (l *Ledger) CheckIntegrity() error {
	active := uint64(l.reg.ActiveCount())
	if active != 0 && l.params.EntranceFee > math.MaxUint64/active {
		return errLedgerf("pool invariant overflow: fee %d x active %d", l.params.EntranceFee, active)
	}
	if want := l.params.EntranceFee * active; l.pool != want {
		return errLedgerf("pool %d, want %d (fee %d x active %d)", l.pool, want, l.params.EntranceFee, active)
	}
	return nil
}
