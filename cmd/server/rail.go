package main

import (
	"context"
	"log/slog"

	"tombola/internal/raffle/models"
	"tombola/internal/raffle/service"
)

// journalRail acknowledges every outbound transfer after writing it to the
// structured log. It stands in for the host platform's settlement rail;
// deployments integrate their own service.PaymentRail and wire it here.
// The ledger has already debited the funds when Deliver runs, so whatever
// replaces this must treat a non-nil return as "nothing left custody".
type journalRail struct {
	logger *slog.Logger
}

var _ service.PaymentRail = (*journalRail)(nil)

func newJournalRail(logger *slog.Logger) *journalRail {
	return &journalRail{logger: logger}
}

func (r *journalRail) Deliver(ctx context.Context, transfer models.Transfer) error {
	r.logger.InfoContext(ctx, "transfer settled",
		"transfer_id", transfer.ID.String(),
		"kind", string(transfer.Kind),
		"recipient", transfer.Recipient.String(),
		"amount", transfer.Amount,
		"epoch", transfer.Epoch,
	)
	return nil
}
