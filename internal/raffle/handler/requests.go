package handler

import (
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/validation"
)

// EnterRequest is the HTTP request body for POST /raffle/enter. The caller
// is the paying address; entrants defaults to the caller alone when empty.
type EnterRequest struct {
	Caller   string   `json:"caller"`
	Entrants []string `json:"entrants,omitempty"`
	Payment  uint64   `json:"payment"`

	// Parsed values (populated by Validate)
	parsedCaller   domain.Identity
	parsedEntrants []domain.Identity
}

// Validate validates and parses the request.
func (r *EnterRequest) Validate() error {
	sanitize(r)

	if r.Caller == "" {
		return dErrors.New(dErrors.CodeValidation, "caller is required")
	}
	caller, err := domain.ParseIdentity(r.Caller)
	if err != nil {
		return err
	}
	r.parsedCaller = caller

	if len(r.Entrants) > validation.MaxBatchEntrants {
		return dErrors.New(dErrors.CodeValidation, "too many entrants in one batch")
	}
	if len(r.Entrants) == 0 {
		r.parsedEntrants = []domain.Identity{caller}
		return nil
	}
	r.parsedEntrants = make([]domain.Identity, len(r.Entrants))
	for i, e := range r.Entrants {
		id, err := domain.ParseIdentity(e)
		if err != nil {
			return err
		}
		r.parsedEntrants[i] = id
	}
	return nil
}

// ParsedCaller returns the paying identity. Valid after Validate.
func (r *EnterRequest) ParsedCaller() domain.Identity {
	return r.parsedCaller
}

// ParsedEntrants returns the batch to enter. Valid after Validate.
func (r *EnterRequest) ParsedEntrants() []domain.Identity {
	return r.parsedEntrants
}

// RefundRequest is the HTTP request body for POST /raffle/refund.
type RefundRequest struct {
	Caller string `json:"caller"`
	Slot   *int   `json:"slot"`

	// Parsed values (populated by Validate)
	parsedCaller domain.Identity
}

// Validate validates and parses the request. Slot range checking belongs
// to the session, which owns the invalid-index verdict.
func (r *RefundRequest) Validate() error {
	sanitize(r)

	if r.Caller == "" {
		return dErrors.New(dErrors.CodeValidation, "caller is required")
	}
	caller, err := domain.ParseIdentity(r.Caller)
	if err != nil {
		return err
	}
	r.parsedCaller = caller

	if r.Slot == nil {
		return dErrors.New(dErrors.CodeValidation, "slot is required")
	}
	return nil
}

// ParsedCaller returns the refunding identity. Valid after Validate.
func (r *RefundRequest) ParsedCaller() domain.Identity {
	return r.parsedCaller
}

// ConfigUpdateRequest is the HTTP request body for PUT /raffle/config.
// Absent fields are left untouched; parameter fields take effect when the
// next round opens, the fee recipient immediately.
type ConfigUpdateRequest struct {
	EntranceFee          *uint64 `json:"entrance_fee,omitempty"`
	RoundDurationSeconds *int64  `json:"round_duration_seconds,omitempty"`
	WinnerPercent        *uint64 `json:"winner_percent,omitempty"`
	MinEntrants          *int    `json:"min_entrants,omitempty"`
	FeeRecipient         *string `json:"fee_recipient,omitempty"`

	// Parsed values (populated by Validate)
	parsedUpdate models.ConfigUpdate
}

// Validate validates and parses the request. Value ranges are the
// session's call; only shape and identity charset are checked here.
func (r *ConfigUpdateRequest) Validate() error {
	sanitize(r)

	update := models.ConfigUpdate{
		EntranceFee:   r.EntranceFee,
		WinnerPercent: r.WinnerPercent,
		MinEntrants:   r.MinEntrants,
	}
	if r.RoundDurationSeconds != nil {
		d := time.Duration(*r.RoundDurationSeconds) * time.Second
		update.RoundDuration = &d
	}
	if r.FeeRecipient != nil {
		recipient, err := domain.ParseIdentity(*r.FeeRecipient)
		if err != nil {
			return err
		}
		update.FeeRecipient = &recipient
	}
	if update.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "update changes nothing")
	}
	r.parsedUpdate = update
	return nil
}

// ParsedUpdate returns the partial configuration change. Valid after
// Validate.
func (r *ConfigUpdateRequest) ParsedUpdate() models.ConfigUpdate {
	return r.parsedUpdate
}
