package ledger

import (
	"fmt"
	"math"
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
)

func errLedgerf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLedgerInconsistent, fmt.Sprintf(format, args...))
}

// Tx is a journaled unit of work over the ledger. Every mutator validates
// its own preconditions first and only then applies the change, recording an
// undo closure. Rollback replays the journal in reverse, so aborting costs
// time proportional to the mutations made, not to the size of the ledger.
//
// Mark and RollbackTo give nested operations savepoint semantics: an inner
// operation that fails can unwind just its own mutations while the outer
// unit of work continues.
type Tx struct {
	l       *Ledger
	journal []func()
	done    bool
}

// Mark returns a savepoint for RollbackTo.
func (t *Tx) Mark() int { return len(t.journal) }

// RollbackTo undoes, in reverse order, every mutation recorded after mark.
func (t *Tx) RollbackTo(mark int) {
	for i := len(t.journal) - 1; i >= mark; i-- {
		t.journal[i]()
	}
	t.journal = t.journal[:mark]
}

// Rollback undoes the whole transaction. Safe to call after Commit; it then
// does nothing.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.RollbackTo(0)
	t.done = true
}

// Commit makes the transaction's mutations final.
//
// Errors: ErrTxDone when the transaction already finished.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.journal = nil
	t.done = true
	return nil
}

func (t *Tx) record(undo func()) {
	t.journal = append(t.journal, undo)
}

// -----------------------------------------------------------------------------
// Registry mutations
// -----------------------------------------------------------------------------

// AddEntrants appends one slot per identity to the current round and returns
// the index of the first new slot. The whole batch is validated before any
// slot is written: an identity that already holds an active slot, or appears
// twice in the batch, rejects the batch with no partial insertion.
//
// Errors: ErrDuplicateIdentity (wrapped with the offending token), ErrTxDone.
func (t *Tx) AddEntrants(ids []domain.Identity) (int, error) {
	if t.done {
		return 0, ErrTxDone
	}
	reg := t.l.reg
	inBatch := make(map[domain.Identity]struct{}, len(ids))
	for _, id := range ids {
		if reg.HasActive(id) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateIdentity, id)
		}
		if _, dup := inBatch[id]; dup {
			return 0, fmt.Errorf("%w: %s (twice in batch)", ErrDuplicateIdentity, id)
		}
		inBatch[id] = struct{}{}
	}

	first := len(reg.slots)
	type prevSeen struct {
		id      domain.Identity
		rec     seenRecord
		existed bool
	}
	prev := make([]prevSeen, 0, len(ids))

	for i, id := range ids {
		rec, existed := reg.seen[id]
		prev = append(prev, prevSeen{id: id, rec: rec, existed: existed})
		reg.seen[id] = seenRecord{epoch: reg.epoch, slot: first + i}
		reg.slots = append(reg.slots, slot{identity: id, active: true})
	}
	reg.active += len(ids)

	added := len(ids)
	t.record(func() {
		for _, p := range prev {
			if p.existed {
				reg.seen[p.id] = p.rec
			} else {
				delete(reg.seen, p.id)
			}
		}
		reg.slots = reg.slots[:first]
		reg.active -= added
	})
	return first, nil
}

// DeactivateSlot marks slot i refunded. The identity keeps the slot (indices
// never shift mid-round) but no longer counts as active, so it may enter
// again and can no longer win or be refunded twice.
//
// Errors: ErrIndexOutOfRange, ErrSlotNotActive, ErrTxDone.
func (t *Tx) DeactivateSlot(i int) error {
	if t.done {
		return ErrTxDone
	}
	reg := t.l.reg
	if i < 0 || i >= len(reg.slots) {
		return ErrIndexOutOfRange
	}
	if !reg.slots[i].active {
		return ErrSlotNotActive
	}
	reg.slots[i].active = false
	reg.active--
	t.record(func() {
		reg.slots[i].active = true
		reg.active++
	})
	return nil
}

// RotateRound closes the current round and opens the next one: epoch
// advances, the slot list resets, staged parameters (if any) take effect and
// the round clock restarts at now. The seen index is not swept; stale records
// are recognized by their epoch, which keeps rotation O(1).
//
// Returns the newly opened epoch.
//
// Errors: ErrTxDone.
func (t *Tx) RotateRound(now time.Time) (uint64, error) {
	if t.done {
		return 0, ErrTxDone
	}
	l := t.l
	reg := l.reg

	prevSlots := reg.slots
	prevActive := reg.active
	prevEpoch := reg.epoch
	prevStart := l.roundStart
	prevParams := l.params
	prevPending := l.pending

	reg.epoch++
	reg.slots = nil
	reg.active = 0
	l.roundStart = now
	if l.pending != nil {
		l.params = *l.pending
		l.pending = nil
	}

	t.record(func() {
		reg.slots = prevSlots
		reg.active = prevActive
		reg.epoch = prevEpoch
		l.roundStart = prevStart
		l.params = prevParams
		l.pending = prevPending
	})
	return reg.epoch, nil
}

// -----------------------------------------------------------------------------
// Balance mutations
// -----------------------------------------------------------------------------

// CreditPool adds amount to the prize pool.
//
// Errors: ErrBalanceOverflow, ErrTxDone.
func (t *Tx) CreditPool(amount uint64) error {
	if t.done {
		return ErrTxDone
	}
	if amount > math.MaxUint64-t.l.pool {
		return ErrBalanceOverflow
	}
	t.l.pool += amount
	t.record(func() { t.l.pool -= amount })
	return nil
}

// DebitPool removes amount from the prize pool.
//
// Errors: ErrInsufficientFunds, ErrTxDone.
func (t *Tx) DebitPool(amount uint64) error {
	if t.done {
		return ErrTxDone
	}
	if t.l.pool < amount {
		return ErrInsufficientFunds
	}
	t.l.pool -= amount
	t.record(func() { t.l.pool += amount })
	return nil
}

// CreditFees adds amount to the accrued fee balance.
//
// Errors: ErrBalanceOverflow, ErrTxDone.
func (t *Tx) CreditFees(amount uint64) error {
	if t.done {
		return ErrTxDone
	}
	if amount > math.MaxUint64-t.l.fees {
		return ErrBalanceOverflow
	}
	t.l.fees += amount
	t.record(func() { t.l.fees -= amount })
	return nil
}

// DebitFees removes amount from the accrued fee balance.
//
// Errors: ErrInsufficientFunds, ErrTxDone.
func (t *Tx) DebitFees(amount uint64) error {
	if t.done {
		return ErrTxDone
	}
	if t.l.fees < amount {
		return ErrInsufficientFunds
	}
	t.l.fees -= amount
	t.record(func() { t.l.fees += amount })
	return nil
}

// -----------------------------------------------------------------------------
// Configuration mutations
// -----------------------------------------------------------------------------

// StageParams records params to take effect when the next round opens.
// Staging again before rotation replaces the previous staging.
//
// Errors: ErrTxDone.
func (t *Tx) StageParams(p models.RoundParams) error {
	if t.done {
		return ErrTxDone
	}
	prev := t.l.pending
	t.l.pending = &p
	t.record(func() { t.l.pending = prev })
	return nil
}

// SetFeeRecipient changes the fee recipient immediately. No live-slot
// invariant depends on the recipient, so this does not wait for rotation.
//
// Errors: ErrTxDone.
func (t *Tx) SetFeeRecipient(id domain.Identity) error {
	if t.done {
		return ErrTxDone
	}
	prev := t.l.feeRecipient
	t.l.feeRecipient = id
	t.record(func() { t.l.feeRecipient = prev })
	return nil
}

// -----------------------------------------------------------------------------
// Reads (delegate to the ledger so operations only handle a Tx)
// -----------------------------------------------------------------------------

func (t *Tx) Epoch() uint64 { return t.l.Epoch() }

func (t *Tx) SlotCount() int { return t.l.SlotCount() }

func (t *Tx) ActiveCount() int { return t.l.ActiveCount() }

func (t *Tx) PoolBalance() uint64 { return t.l.PoolBalance() }

func (t *Tx) FeeBalance() uint64 { return t.l.FeeBalance() }

func (t *Tx) RoundStart() time.Time { return t.l.RoundStart() }

func (t *Tx) Params() models.RoundParams { return t.l.Params() }

func (t *Tx) PendingParams() (models.RoundParams, bool) { return t.l.PendingParams() }

func (t *Tx) FeeRecipient() domain.Identity { return t.l.FeeRecipient() }

func (t *Tx) IdentityAt(i int) (domain.Identity, bool, error) { return t.l.IdentityAt(i) }

func (t *Tx) ActiveIdentityAt(n int) (domain.Identity, int, error) { return t.l.ActiveIdentityAt(n) }

func (t *Tx) SlotOf(id domain.Identity) (int, bool) { return t.l.SlotOf(id) }

func (t *Tx) HasActive(id domain.Identity) bool { return t.l.HasActive(id) }

func (t *Tx) CheckIntegrity() error { return t.l.CheckIntegrity() }
