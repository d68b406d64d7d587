// Package handler wires the raffle session to its HTTP surface. Entry and
// refund are open to any caller supplying a valid address token; draw, fee
// withdrawal and configuration sit behind operator credentials.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tombola/internal/platform/device"
	"tombola/internal/platform/metrics"
	"tombola/internal/platform/middleware"
	"tombola/internal/raffle/models"
	ratelimitmw "tombola/internal/ratelimit/middleware"
	"tombola/internal/transport/http/shared"
	"tombola/pkg/domain"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

// Service defines the session operations the handlers call.
type Service interface {
	Enter(ctx context.Context, payer domain.Identity, entrants []domain.Identity, payment uint64) (int, error)
	Refund(ctx context.Context, caller domain.Identity, slotIndex int) error
	DrawWinner(ctx context.Context) (*models.RoundRecord, error)
	WithdrawFees(ctx context.Context, caller domain.Identity) (uint64, error)
	Reconfigure(ctx context.Context, caller domain.Identity, update models.ConfigUpdate) (models.Config, error)
	RoundStatus(ctx context.Context) models.RoundStatus
	SlotOf(ctx context.Context, identity domain.Identity) (int, bool)
	RoundByEpoch(ctx context.Context, epoch uint64) (*models.RoundRecord, error)
}

// Handler handles raffle endpoints.
type Handler struct {
	session     Service
	logger      *slog.Logger
	metrics     *metrics.Metrics
	devices     *device.Service
	validator   middleware.TokenValidator
	operatorKey *middleware.OperatorKey
	rateLimiter *ratelimitmw.Middleware
}

// New creates a raffle Handler. rateLimiter may be nil, which leaves the
// entry endpoint unthrottled.
func New(
	session Service,
	logger *slog.Logger,
	collector *metrics.Metrics,
	devices *device.Service,
	validator middleware.TokenValidator,
	operatorKey *middleware.OperatorKey,
	rateLimiter *ratelimitmw.Middleware,
) *Handler {
	return &Handler{
		session:     session,
		logger:      logger,
		metrics:     collector,
		devices:     devices,
		validator:   validator,
		operatorKey: operatorKey,
		rateLimiter: rateLimiter,
	}
}

// Register registers the raffle routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	raffleRouter := chi.NewRouter()
	raffleRouter.Use(middleware.Recovery(h.logger))
	raffleRouter.Use(middleware.RequestID)
	raffleRouter.Use(middleware.RequestTime)
	raffleRouter.Use(middleware.ClientMetadata)
	raffleRouter.Use(middleware.Logger(h.logger))
	raffleRouter.Use(middleware.Timeout(30 * time.Second))
	raffleRouter.Use(middleware.ContentTypeJSON)
	raffleRouter.Use(middleware.LatencyMiddleware(h.metrics))

	if h.rateLimiter != nil {
		raffleRouter.With(h.rateLimiter.RateLimit()).Post("/raffle/enter", h.handleEnter)
	} else {
		raffleRouter.Post("/raffle/enter", h.handleEnter)
	}

	raffleRouter.Post("/raffle/refund", h.handleRefund)
	raffleRouter.Get("/raffle/round", h.handleRoundStatus)
	raffleRouter.Get("/raffle/rounds/{epoch}", h.handleRoundByEpoch)

	operator := middleware.RequireOperator(h.validator, h.operatorKey, h.logger)
	raffleRouter.With(operator).Post("/raffle/draw", h.handleDraw)
	raffleRouter.With(operator).Post("/raffle/fees/withdraw", h.handleWithdrawFees)
	raffleRouter.With(operator).Put("/raffle/config", h.handleUpdateConfig)

	r.Mount("/", raffleRouter)
}

// handleEnter registers the request's entrants against exact payment.
func (h *Handler) handleEnter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := shared.DecodeAndPrepare[EnterRequest](w, r, h.logger)
	if !ok {
		return
	}

	entrants := req.ParsedEntrants()
	slot, err := h.session.Enter(ctx, req.ParsedCaller(), entrants, req.Payment)
	if err != nil {
		h.logFailure(ctx, "enter rejected", err,
			slog.String("caller", req.Caller),
			slog.Int("batch_size", len(entrants)),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entry accepted",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("caller", req.Caller),
		slog.Int("batch_size", len(entrants)),
		slog.Int("slot", slot),
		slog.String("device", device.ParseUserAgent(requestcontext.UserAgent(ctx))),
	)

	shared.WriteJSON(w, http.StatusCreated, &EnterResponse{
		Slot:    slot,
		Epoch:   h.session.RoundStatus(ctx).Epoch,
		Entered: len(entrants),
	})
}

// handleRefund deactivates the caller's slot and returns its fee.
func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := shared.DecodeAndPrepare[RefundRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.session.Refund(ctx, req.ParsedCaller(), *req.Slot); err != nil {
		h.logFailure(ctx, "refund rejected", err,
			slog.String("caller", req.Caller),
			slog.Int("slot", *req.Slot),
			slog.String("device_fingerprint", h.fingerprint(ctx)),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "refund issued",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("caller", req.Caller),
		slog.Int("slot", *req.Slot),
	)

	w.WriteHeader(http.StatusNoContent)
}

// handleDraw concludes the round past its deadline and reports the result.
func (h *Handler) handleDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.session.DrawWinner(ctx)
	if err != nil {
		h.logFailure(ctx, "draw rejected", err,
			slog.String("operator", requestcontext.Caller(ctx).String()),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "round concluded",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.Uint64("epoch", record.Epoch),
		slog.String("winner", record.Winner.String()),
		slog.Uint64("winner_share", record.WinnerShare),
	)

	shared.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// handleWithdrawFees drains the accrued fee balance to the recipient.
func (h *Handler) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "operator identity missing from context despite auth middleware",
			slog.String("request_id", requestcontext.RequestID(ctx)),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	amount, err := h.session.WithdrawFees(ctx, caller)
	if err != nil {
		h.logFailure(ctx, "fee withdrawal rejected", err,
			slog.String("operator", caller.String()),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fees withdrawn",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("operator", caller.String()),
		slog.Uint64("amount", amount),
	)

	shared.WriteJSON(w, http.StatusOK, &WithdrawResponse{Amount: amount})
}

// handleUpdateConfig applies a partial configuration change.
func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "operator identity missing from context despite auth middleware",
			slog.String("request_id", requestcontext.RequestID(ctx)),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	req, ok := shared.DecodeAndPrepare[ConfigUpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	cfg, err := h.session.Reconfigure(ctx, caller, req.ParsedUpdate())
	if err != nil {
		h.logFailure(ctx, "config update rejected", err,
			slog.String("operator", caller.String()),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "config updated",
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.String("operator", caller.String()),
	)

	shared.WriteJSON(w, http.StatusOK, FromConfig(cfg))
}

// handleRoundStatus reports the current round; an identity query parameter
// adds that caller's active slot when one exists.
func (h *Handler) handleRoundStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := FromStatus(h.session.RoundStatus(ctx))

	if raw := r.URL.Query().Get("identity"); raw != "" {
		identity, err := domain.ParseIdentity(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		if slot, ok := h.session.SlotOf(ctx, identity); ok {
			resp.YourSlot = &slot
		}
	}

	shared.WriteJSON(w, http.StatusOK, resp)
}

// handleRoundByEpoch reads one concluded round from the archive.
func (h *Handler) handleRoundByEpoch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	epoch, err := strconv.ParseUint(chi.URLParam(r, "epoch"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid epoch"))
		return
	}

	record, err := h.session.RoundByEpoch(ctx, epoch)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logFailure(ctx, "round lookup failed", err, slog.Uint64("epoch", epoch))
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, FromRecord(record))
}

// logFailure logs a failed operation at a level matching who caused it:
// client-coded errors warn, server-side ones error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	level := slog.LevelWarn
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs = append(attrs,
		slog.String("request_id", requestcontext.RequestID(ctx)),
		slog.Any("error", err),
	)
	h.logger.LogAttrs(ctx, level, msg, attrs...)
}

// fingerprint hashes the request's user agent when device tracking is on.
func (h *Handler) fingerprint(ctx context.Context) string {
	if h.devices == nil {
		return ""
	}
	return h.devices.ComputeFingerprint(requestcontext.UserAgent(ctx))
}
