package service

import (
	"context"
	"errors"
	"time"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/sentinel"
)

const defaultRecentRounds = 20

// ledgerReader is the shared read surface of the ledger and its Tx, so
// status can be assembled from either a locked ledger or an open scope.
type ledgerReader interface {
	Epoch() uint64
	ActiveCount() int
	SlotCount() int
	PoolBalance() uint64
	FeeBalance() uint64
	RoundStart() time.Time
	Params() models.RoundParams
	PendingParams() (models.RoundParams, bool)
	FeeRecipient() domain.Identity
	SlotOf(id domain.Identity) (int, bool)
}

func buildStatus(r ledgerReader) models.RoundStatus {
	params := r.Params()
	status := models.RoundStatus{
		Epoch:          r.Epoch(),
		ActiveEntrants: r.ActiveCount(),
		TotalSlots:     r.SlotCount(),
		PoolBalance:    r.PoolBalance(),
		AccruedFees:    r.FeeBalance(),
		RoundStart:     r.RoundStart(),
		Deadline:       r.RoundStart().Add(params.RoundDuration),
		Params:         params,
		FeeRecipient:   r.FeeRecipient(),
	}
	if pending, ok := r.PendingParams(); ok {
		status.Pending = &pending
	}
	return status
}

// RoundStatus reports the state of the current round. Inside an open
// operation it reflects that operation's uncommitted effects; otherwise it
// is a consistent snapshot taken under the session lock.
func (s *Service) RoundStatus(ctx context.Context) models.RoundStatus {
	if sc, ok := scopeFrom(ctx); ok {
		return buildStatus(sc.tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildStatus(s.ledger)
}

// SlotOf reports the slot an identity actively holds in the current round.
func (s *Service) SlotOf(ctx context.Context, identity domain.Identity) (int, bool) {
	if sc, ok := scopeFrom(ctx); ok {
		return sc.tx.SlotOf(identity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.SlotOf(identity)
}

// RoundByEpoch returns the archived record of a concluded round.
//
// Errors: CodeNotFound for epochs never concluded or when no archive is
// configured.
func (s *Service) RoundByEpoch(ctx context.Context, epoch uint64) (*models.RoundRecord, error) {
	if s.archive == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "round archive is not configured")
	}
	record, err := s.archive.FindByEpoch(ctx, epoch)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "round not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "round lookup failed")
	}
	return record, nil
}

// RecentRounds lists the most recently concluded rounds, newest first. An
// unset limit defaults to 20; without an archive the listing is empty.
func (s *Service) RecentRounds(ctx context.Context, limit int) ([]models.RoundRecord, error) {
	if s.archive == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRecentRounds
	}
	records, err := s.archive.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "round listing failed")
	}
	return records, nil
}
