// Package service implements the custodial raffle session: entry, refund,
// draw, fee withdrawal and reconfiguration over one in-memory ledger.
//
// All operations are serialized by a session lock and follow a fixed shape:
// every check runs before the first effect, every effect is journaled, and
// the outbound transfer at the end of an operation is the only point where
// control leaves custody. A payment rail that re-enters the service during
// delivery joins the open unit of work instead of starting a fresh one, so
// a reentrant call can never observe or exploit a half-applied operation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tombola/internal/platform/metrics"
	"tombola/internal/raffle/ledger"
	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/eventlog"
)

// PaymentRail delivers outbound value to a recipient. Deliver runs with the
// session lock held and the open unit of work on ctx, so a rail callback
// that re-enters the service with that same ctx joins the unit instead of
// deadlocking. Deliveries are provisional until the surrounding operation
// commits: when the operation fails after Deliver returned, the transfer is
// void and must not settle.
//
// A non-nil error marks the transfer rejected and aborts the operation.
type PaymentRail interface {
	Deliver(ctx context.Context, transfer models.Transfer) error
}

// RandomSource yields uniformly distributed draw values. Implementations
// must not call back into the session.
type RandomSource interface {
	Uint64(ctx context.Context) (uint64, error)
}

// PrizeIssuer grants the winner's non-monetary prize when a round closes.
// An Issue failure aborts the draw, payout included.
type PrizeIssuer interface {
	Issue(ctx context.Context, winner domain.Identity, epoch uint64) error
}

// Archive persists concluded round records for later lookup. Saves happen
// after the draw committed and never affect its outcome.
type Archive interface {
	Save(ctx context.Context, record models.RoundRecord) error
	FindByEpoch(ctx context.Context, epoch uint64) (*models.RoundRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.RoundRecord, error)
}

// Service is one raffle session. It owns the ledger outright: every entry
// fee paid in is held in custody until a refund, a winning draw or a fee
// withdrawal pays it out through the payment rail.
type Service struct {
	mu     sync.Mutex
	ledger *ledger.Ledger

	rail    PaymentRail
	random  RandomSource
	prizes  PrizeIssuer
	archive Archive

	sink    eventlog.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	start time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventSink(sink eventlog.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPrizeIssuer(issuer PrizeIssuer) Option {
	return func(s *Service) {
		s.prizes = issuer
	}
}

func WithArchive(archive Archive) Option {
	return func(s *Service) {
		s.archive = archive
	}
}

// WithStartTime fixes the opening time of round 1. Defaults to time.Now().
func WithStartTime(t time.Time) Option {
	return func(s *Service) {
		s.start = t
	}
}

func New(
	cfg models.Config,
	rail PaymentRail,
	random RandomSource,
	opts ...Option,
) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rail == nil {
		return nil, fmt.Errorf("payment rail is required")
	}
	if random == nil {
		return nil, fmt.Errorf("randomness source is required")
	}

	svc := &Service{
		rail:   rail,
		random: random,
		logger: slog.Default(),
		tracer: otel.Tracer("tombola/raffle"),
		start:  time.Now(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.sink == nil {
		svc.sink = eventlog.NewSlogSink(svc.logger)
	}
	svc.ledger = ledger.New(cfg, svc.start)

	return svc, nil
}

// transferOut is the single site where value leaves custody. Every
// bookkeeping effect of the surrounding operation is journaled before it
// runs, so the state the rail (and anything it calls back into) can observe
// already reflects the transfer as spent. A rejection aborts the operation
// and the journal unwinds it.
func (s *Service) transferOut(ctx context.Context, transfer models.Transfer) error {
	s.logger.InfoContext(ctx, "dispatching transfer",
		"transfer_id", transfer.ID.String(),
		"kind", string(transfer.Kind),
		"recipient", transfer.Recipient.String(),
		"amount", transfer.Amount,
		"epoch", transfer.Epoch,
	)
	if err := s.rail.Deliver(ctx, transfer); err != nil {
		if s.metrics != nil {
			s.metrics.RecordTransferRejected(string(transfer.Kind))
		}
		return dErrors.Wrap(err, dErrors.CodeTransferRejected, "payment rail rejected the transfer")
	}
	return nil
}

// publish hands the operation's events to the sink and counts them. Called
// only after commit; a sink failure is logged, never propagated, because the
// ledger, not the event trail, is the book of record.
func (s *Service) publish(ctx context.Context, events []eventlog.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.sink.Publish(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			"count", len(events),
			"error", err,
		)
	}
	if s.metrics == nil {
		return
	}
	for _, ev := range events {
		switch ev.Kind {
		case eventlog.KindEntryAccepted:
			s.metrics.RecordEntries(len(ev.Subjects))
		case eventlog.KindRefundIssued:
			s.metrics.RecordRefund()
		case eventlog.KindWinnerSelected:
			s.metrics.RecordWinner()
		case eventlog.KindFeesWithdrawn:
			s.metrics.RecordFeeWithdrawal()
		case eventlog.KindConfigUpdated:
			s.metrics.RecordConfigUpdate()
		case eventlog.KindRoundOpened:
			s.metrics.RecordRoundOpened()
		}
	}
}

func (s *Service) observeLedger() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetLedgerState(
		s.ledger.PoolBalance(),
		s.ledger.FeeBalance(),
		s.ledger.ActiveCount(),
		s.ledger.SlotCount(),
		s.ledger.Epoch(),
	)
}
