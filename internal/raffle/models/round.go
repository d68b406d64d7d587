package models

import (
	"time"

	"tombola/pkg/domain"
)

// RoundStatus is a read-only snapshot of the current round, taken under the
// session lock so all fields are mutually consistent.
type RoundStatus struct {
	Epoch          uint64
	ActiveEntrants int
	TotalSlots     int
	PoolBalance    uint64
	AccruedFees    uint64
	RoundStart     time.Time
	Deadline       time.Time
	Params         RoundParams
	FeeRecipient   domain.Identity

	// Pending holds parameters staged to take effect when the next round
	// opens, nil when none are staged.
	Pending *RoundParams
}

// DrawOpen reports whether a draw would pass the deadline check at t.
func (s RoundStatus) DrawOpen(t time.Time) bool {
	return !t.Before(s.Deadline)
}

// RoundRecord is the archived outcome of one concluded round.
type RoundRecord struct {
	Epoch       uint64
	Winner      domain.Identity
	Entrants    int
	PoolAtClose uint64
	WinnerShare uint64
	FeeShare    uint64
	DrawnAt     time.Time
}
