package models

import (
	"tombola/pkg/domain"
)

// TransferKind says why funds are leaving custody.
type TransferKind string

const (
	TransferRefund        TransferKind = "refund"
	TransferWinnerPayout  TransferKind = "winner_payout"
	TransferFeeWithdrawal TransferKind = "fee_withdrawal"
)

// Transfer is one outbound movement of funds, handed to the payment rail
// after the ledger state that justifies it is already final. It is the only
// point where custody interacts with the outside world.
type Transfer struct {
	ID        domain.TransferID
	Kind      TransferKind
	Recipient domain.Identity
	Amount    uint64

	// Epoch is the round the transfer settles for. For a winner payout
	// this is the concluded round, not the one opened by the draw.
	Epoch uint64
}
