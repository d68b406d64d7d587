package service

import (
	"errors"

	"tombola/internal/raffle/ledger"
	dErrors "tombola/pkg/domain-errors"
)

// translateLedger maps ledger sentinels onto the operation error taxonomy.
// Anything unrecognized is an internal error: the ledger reported a failure
// the operation's own checks should have ruled out.
func translateLedger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrDuplicateIdentity):
		return dErrors.Wrap(err, dErrors.CodeDuplicateEntrant, "identity already holds an active slot this round")
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		return dErrors.Wrap(err, dErrors.CodeInvalidIndex, "no such slot in the current round")
	case errors.Is(err, ledger.ErrSlotNotActive):
		return dErrors.Wrap(err, dErrors.CodeAlreadyRefunded, "slot was already refunded")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return dErrors.Wrap(err, dErrors.CodeInsufficientPool, "custody balance cannot cover the amount")
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return dErrors.Wrap(err, dErrors.CodeValidation, "balance capacity exceeded")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger operation failed")
	}
}
