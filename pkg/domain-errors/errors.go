// Package domainerrors defines the coded error type shared by all layers.
//
// Services attach a Code to every error they return so transports can map
// failures to wire responses without inspecting error strings, and so tests
// can assert on outcomes instead of message text. Construct with New or Wrap
// at the point of failure; inspect with HasCode (or Is) at the boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error by what went wrong, not where.
type Code string

// Raffle lifecycle codes. Each one corresponds to a precondition an
// operation checks before mutating ledger state.
const (
	// CodeWrongPayment: the attached payment does not equal the entrance
	// fee times the number of identities in the batch.
	CodeWrongPayment Code = "wrong_payment"

	// CodeDuplicateEntrant: an identity in the batch already holds an
	// active slot in the current round.
	CodeDuplicateEntrant Code = "duplicate_entrant"

	// CodeInvalidIndex: a slot index is outside the current round's range.
	CodeInvalidIndex Code = "invalid_index"

	// CodeUnauthorized: the caller is not allowed to act on the target
	// (not the slot owner, not the fee recipient, or not authenticated).
	CodeUnauthorized Code = "unauthorized"

	// CodeAlreadyRefunded: the slot was deactivated by an earlier refund.
	CodeAlreadyRefunded Code = "already_refunded"

	// CodeRoundNotOver: the round deadline has not passed yet.
	CodeRoundNotOver Code = "round_not_over"

	// CodeNoEntrants: the round has no active entrants (or fewer than the
	// configured minimum) so no winner can be drawn.
	CodeNoEntrants Code = "no_entrants"

	// CodeInsufficientPool: a balance is too small to cover the requested
	// movement, including a fee withdrawal with nothing accrued.
	CodeInsufficientPool Code = "insufficient_pool"

	// CodeTransferRejected: the payment rail refused an outbound transfer.
	// The operation that requested it is rolled back in full.
	CodeTransferRejected Code = "transfer_rejected"
)

// Ambient codes used outside the raffle state machine.
const (
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Error is the concrete coded error. Callers should treat it as opaque and
// use HasCode/CodeOf rather than type-asserting.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes two coded errors equal under errors.Is when their code and
// message match, so tests can compare against a freshly built value.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code && e.Message == te.Message
}

// New returns an error carrying code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message while preserving the chain for
// errors.Is/errors.As. Returns nil if err is nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode, matching the errors.Is call shape.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code at all.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// httpStatus maps each code to its HTTP response status. Codes absent from
// the map fall back to 500 so an unmapped code can never leak a success.
var httpStatus = map[Code]int{
	CodeWrongPayment:     http.StatusPaymentRequired,
	CodeDuplicateEntrant: http.StatusConflict,
	CodeInvalidIndex:     http.StatusNotFound,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeAlreadyRefunded:  http.StatusConflict,
	CodeRoundNotOver:     http.StatusConflict,
	CodeNoEntrants:       http.StatusConflict,
	CodeInsufficientPool: http.StatusConflict,
	CodeTransferRejected: http.StatusBadGateway,

	CodeValidation:         http.StatusBadRequest,
	CodeInvalidInput:       http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeForbidden:          http.StatusForbidden,
	CodeInvariantViolation: http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
}

// ToHTTPStatus translates a code into the HTTP status the transport layer
// should respond with.
func ToHTTPStatus(code Code) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
