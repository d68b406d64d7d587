package domain

import (
	"github.com/google/uuid"

	dErrors "tombola/pkg/domain-errors"
)

// Typed UUIDs for internal records. Distinct types keep a transfer reference
// from ever being handed to code expecting an event reference; the compiler
// enforces what a string-typed ID would leave to review.
//
// Invariant: IDs must be valid, non-nil UUIDs. Construct with New*, or with
// Parse* at trust boundaries.
type (
	// TransferID identifies one outbound transfer handed to the payment rail.
	TransferID uuid.UUID

	// EventID identifies one observable ledger event.
	EventID uuid.UUID
)

// NewTransferID returns a fresh random TransferID.
func NewTransferID() TransferID { return TransferID(uuid.New()) }

// NewEventID returns a fresh random EventID.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id TransferID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

func (id TransferID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseTransferID constructs a TransferID from external input.
//
// Errors: returns CodeInvalidInput when the value is not a valid non-nil UUID.
func ParseTransferID(s string) (TransferID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TransferID(uuid.Nil), err
	}
	return TransferID(u), nil
}

// ParseEventID constructs an EventID from external input.
//
// Errors: returns CodeInvalidInput when the value is not a valid non-nil UUID.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID(uuid.Nil), err
	}
	return EventID(u), nil
}

// parseUUID is the single validation path for all typed UUIDs so every ID
// type rejects the same inputs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
