package handler

import (
	"time"

	"tombola/internal/raffle/models"
)

// EnterResponse is the HTTP response for POST /raffle/enter. Slot is the
// index assigned to the first entrant of the batch; a batch occupies the
// indices from Slot upward in request order.
type EnterResponse struct {
	Slot    int    `json:"slot"`
	Epoch   uint64 `json:"epoch"`
	Entered int    `json:"entered"`
}

// WithdrawResponse is the HTTP response for POST /raffle/fees/withdraw.
type WithdrawResponse struct {
	Amount uint64 `json:"amount"`
}

// ParamsResponse is the round-parameter portion of status and config
// responses.
type ParamsResponse struct {
	EntranceFee          uint64 `json:"entrance_fee"`
	RoundDurationSeconds int64  `json:"round_duration_seconds"`
	WinnerPercent        uint64 `json:"winner_percent"`
	MinEntrants          int    `json:"min_entrants"`
}

func fromParams(p models.RoundParams) ParamsResponse {
	return ParamsResponse{
		EntranceFee:          p.EntranceFee,
		RoundDurationSeconds: int64(p.RoundDuration / time.Second),
		WinnerPercent:        p.WinnerPercent,
		MinEntrants:          p.MinEntrants,
	}
}

// RoundStatusResponse is the HTTP response for GET /raffle/round.
type RoundStatusResponse struct {
	Epoch          uint64          `json:"epoch"`
	ActiveEntrants int             `json:"active_entrants"`
	TotalSlots     int             `json:"total_slots"`
	PoolBalance    uint64          `json:"pool_balance"`
	AccruedFees    uint64          `json:"accrued_fees"`
	RoundStart     time.Time       `json:"round_start"`
	Deadline       time.Time       `json:"deadline"`
	FeeRecipient   string          `json:"fee_recipient"`
	Params         ParamsResponse  `json:"params"`
	Pending        *ParamsResponse `json:"pending_params,omitempty"`

	// YourSlot is present when the caller asked for a slot lookup and
	// holds an active slot.
	YourSlot *int `json:"your_slot,omitempty"`
}

// FromStatus converts a round status snapshot to an HTTP response.
func FromStatus(status models.RoundStatus) *RoundStatusResponse {
	resp := &RoundStatusResponse{
		Epoch:          status.Epoch,
		ActiveEntrants: status.ActiveEntrants,
		TotalSlots:     status.TotalSlots,
		PoolBalance:    status.PoolBalance,
		AccruedFees:    status.AccruedFees,
		RoundStart:     status.RoundStart,
		Deadline:       status.Deadline,
		FeeRecipient:   status.FeeRecipient.String(),
		Params:         fromParams(status.Params),
	}
	if status.Pending != nil {
		pending := fromParams(*status.Pending)
		resp.Pending = &pending
	}
	return resp
}

// RoundRecordResponse is the HTTP shape of a concluded round, returned by
// POST /raffle/draw and GET /raffle/rounds/{epoch}.
type RoundRecordResponse struct {
	Epoch       uint64    `json:"epoch"`
	Winner      string    `json:"winner"`
	Entrants    int       `json:"entrants"`
	PoolAtClose uint64    `json:"pool_at_close"`
	WinnerShare uint64    `json:"winner_share"`
	FeeShare    uint64    `json:"fee_share"`
	DrawnAt     time.Time `json:"drawn_at"`
}

// FromRecord converts a concluded round to an HTTP response.
func FromRecord(record *models.RoundRecord) *RoundRecordResponse {
	return &RoundRecordResponse{
		Epoch:       record.Epoch,
		Winner:      record.Winner.String(),
		Entrants:    record.Entrants,
		PoolAtClose: record.PoolAtClose,
		WinnerShare: record.WinnerShare,
		FeeShare:    record.FeeShare,
		DrawnAt:     record.DrawnAt,
	}
}

// ConfigResponse is the HTTP response for PUT /raffle/config.
type ConfigResponse struct {
	Params       ParamsResponse `json:"params"`
	FeeRecipient string         `json:"fee_recipient"`
}

// FromConfig converts the effective configuration to an HTTP response.
func FromConfig(cfg models.Config) *ConfigResponse {
	return &ConfigResponse{
		Params:       fromParams(cfg.RoundParams),
		FeeRecipient: cfg.FeeRecipient.String(),
	}
}
