package models

import (
	"time"

	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
)

// Round parameter bounds. Durations shorter than MinRoundDuration would let a
// draw race the entries it is meant to cover; percents above 100 would mint
// funds out of nothing.
const (
	MinRoundDuration = time.Minute
	MaxWinnerPercent = 100
)

// RoundParams are the per-round economics. They are frozen for the lifetime
// of a round: the pool invariant (pool == fee * active entrants) only holds
// while the fee cannot change under live slots, so updates are staged and
// take effect when the next round opens.
type RoundParams struct {
	// EntranceFee is the price of one slot, in base units.
	EntranceFee uint64

	// RoundDuration is how long a round accepts entries before a draw
	// becomes possible.
	RoundDuration time.Duration

	// WinnerPercent is the winner's share of the pool, 0..100. The
	// remainder of the split, including any integer truncation, accrues
	// to the fee balance.
	WinnerPercent uint64

	// MinEntrants is the smallest number of active entrants a draw will
	// run with.
	MinEntrants int
}

// Validate checks the parameter bounds.
//
// Errors: returns CodeValidation naming the first violated bound.
func (p RoundParams) Validate() error {
	if p.EntranceFee == 0 {
		return dErrors.New(dErrors.CodeValidation, "entrance fee must be positive")
	}
	if p.RoundDuration < MinRoundDuration {
		return dErrors.New(dErrors.CodeValidation, "round duration must be at least one minute")
	}
	if p.WinnerPercent > MaxWinnerPercent {
		return dErrors.New(dErrors.CodeValidation, "winner percent must not exceed 100")
	}
	if p.MinEntrants < 1 {
		return dErrors.New(dErrors.CodeValidation, "minimum entrants must be at least 1")
	}
	return nil
}

// Config is the full session configuration: round economics plus the fee
// recipient, the only identity allowed to withdraw accrued fees or change
// the configuration.
type Config struct {
	RoundParams

	FeeRecipient domain.Identity
}

// Validate checks the configuration, including the recipient.
func (c Config) Validate() error {
	if err := c.RoundParams.Validate(); err != nil {
		return err
	}
	if c.FeeRecipient.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "fee recipient is required")
	}
	return nil
}

// ConfigUpdate carries a partial configuration change. Nil fields are left
// untouched. Parameter fields are staged for the next round; FeeRecipient
// takes effect immediately because no live-slot invariant depends on it.
type ConfigUpdate struct {
	EntranceFee   *uint64
	RoundDuration *time.Duration
	WinnerPercent *uint64
	MinEntrants   *int
	FeeRecipient  *domain.Identity
}

// IsZero reports whether the update changes nothing.
func (u ConfigUpdate) IsZero() bool {
	return u.EntranceFee == nil &&
		u.RoundDuration == nil &&
		u.WinnerPercent == nil &&
		u.MinEntrants == nil &&
		u.FeeRecipient == nil
}

// TouchesParams reports whether the update changes any staged round
// parameter, as opposed to only the fee recipient.
func (u ConfigUpdate) TouchesParams() bool {
	return u.EntranceFee != nil ||
		u.RoundDuration != nil ||
		u.WinnerPercent != nil ||
		u.MinEntrants != nil
}

// ApplyTo returns a copy of params with the update's parameter fields set.
// The result must still pass Validate before being accepted.
func (u ConfigUpdate) ApplyTo(p RoundParams) RoundParams {
	if u.EntranceFee != nil {
		p.EntranceFee = *u.EntranceFee
	}
	if u.RoundDuration != nil {
		p.RoundDuration = *u.RoundDuration
	}
	if u.WinnerPercent != nil {
		p.WinnerPercent = *u.WinnerPercent
	}
	if u.MinEntrants != nil {
		p.MinEntrants = *u.MinEntrants
	}
	return p
}
