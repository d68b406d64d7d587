package ledger

import (
	"tombola/pkg/domain"
)

// seenRecord remembers the most recent slot an identity occupied and in
// which epoch. Records are never deleted; staleness is decided by comparing
// the record's epoch against the registry's current epoch, which keeps round
// rotation O(1) regardless of how many identities have ever entered.
type seenRecord struct {
	epoch uint64
	slot  int
}

// slot is one entry position in the current round. A refunded slot keeps its
// identity but is marked inactive; slots are never compacted mid-round so
// indices handed to participants stay stable.
type slot struct {
	identity domain.Identity
	active   bool
}

// Registry tracks the entrants of the current round. Reads are exported;
// all mutation goes through a Tx so every change is journaled.
//
// Not safe for concurrent use; the owning service serializes access.
type Registry struct {
	epoch  uint64
	slots  []slot
	seen   map[domain.Identity]seenRecord
	active int
}

func newRegistry() *Registry {
	return &Registry{
		epoch: 1,
		seen:  make(map[domain.Identity]seenRecord),
	}
}

// Epoch returns the current round number, starting at 1.
func (r *Registry) Epoch() uint64 { return r.epoch }

// SlotCount returns the number of slots issued this round, including
// refunded ones.
func (r *Registry) SlotCount() int { return len(r.slots) }

// ActiveCount returns the number of slots still active this round.
func (r *Registry) ActiveCount() int { return r.active }

// IdentityAt returns the identity holding slot i and whether the slot is
// still active.
//
// Errors: ErrIndexOutOfRange when i is not a slot of the current round.
func (r *Registry) IdentityAt(i int) (domain.Identity, bool, error) {
	if i < 0 || i >= len(r.slots) {
		return "", false, ErrIndexOutOfRange
	}
	s := r.slots[i]
	return s.identity, s.active, nil
}

// ActiveIdentityAt returns the n-th active identity (0-based, in slot order)
// and the slot it holds. Refunded slots are skipped, so a draw can never land
// on a deactivated entry.
//
// Errors: ErrIndexOutOfRange when n is not in [0, ActiveCount()).
func (r *Registry) ActiveIdentityAt(n int) (domain.Identity, int, error) {
	if n < 0 || n >= r.active {
		return "", 0, ErrIndexOutOfRange
	}
	count := 0
	for i := range r.slots {
		if !r.slots[i].active {
			continue
		}
		if count == n {
			return r.slots[i].identity, i, nil
		}
		count++
	}
	// active is maintained alongside slots; reaching here means they
	// disagree.
	return "", 0, ErrLedgerInconsistent
}

// SlotOf returns the active slot held by id in the current round. O(1).
func (r *Registry) SlotOf(id domain.Identity) (int, bool) {
	rec, ok := r.seen[id]
	if !ok || rec.epoch != r.epoch {
		return 0, false
	}
	if rec.slot >= len(r.slots) || !r.slots[rec.slot].active {
		return 0, false
	}
	return rec.slot, true
}

// HasActive reports whether id holds an active slot in the current round.
func (r *Registry) HasActive(id domain.Identity) bool {
	_, ok := r.SlotOf(id)
	return ok
}
