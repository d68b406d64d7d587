package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	EntriesAccepted   prometheus.Counter
	RefundsIssued     prometheus.Counter
	WinnersSelected   prometheus.Counter
	FeesWithdrawn     prometheus.Counter
	ConfigUpdates     prometheus.Counter
	RoundsOpened      prometheus.Counter
	TransfersRejected *prometheus.CounterVec
	RateLimited       prometheus.Counter

	PoolBalance    prometheus.Gauge
	FeeBalance     prometheus.Gauge
	ActiveEntrants prometheus.Gauge
	TotalSlots     prometheus.Gauge
	CurrentEpoch   prometheus.Gauge

	RequestDuration *prometheus.HistogramVec
	DrawDuration    prometheus.Histogram
}

// New creates and registers all Prometheus metrics with the default registry
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all Prometheus metrics against the given registerer.
// Tests register against a fresh registry so repeated construction does not
// collide with previously registered collectors.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_entries_accepted_total",
			Help: "Total number of raffle entries accepted",
		}),
		RefundsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_refunds_issued_total",
			Help: "Total number of refunds issued",
		}),
		WinnersSelected: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_winners_selected_total",
			Help: "Total number of winning draws completed",
		}),
		FeesWithdrawn: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_fees_withdrawn_total",
			Help: "Total number of fee withdrawals completed",
		}),
		ConfigUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_config_updates_total",
			Help: "Total number of accepted configuration updates",
		}),
		RoundsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_rounds_opened_total",
			Help: "Total number of rounds opened after a concluded draw",
		}),
		TransfersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tombola_transfers_rejected_total",
			Help: "Total number of outbound transfers rejected by the payment rail",
		}, []string{"kind"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "tombola_requests_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		PoolBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_pool_balance_units",
			Help: "Current prize pool balance in payment units",
		}),
		FeeBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_fee_balance_units",
			Help: "Current accrued fee balance in payment units",
		}),
		ActiveEntrants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_active_entrants",
			Help: "Number of active entrants in the current round",
		}),
		TotalSlots: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_round_slots",
			Help: "Number of slots issued in the current round, refunded included",
		}),
		CurrentEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tombola_current_epoch",
			Help: "Epoch number of the round currently accepting entries",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tombola_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		DrawDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tombola_draw_duration_seconds",
			Help:    "Time to complete a winning draw, payout and prize issuance included",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordEntries adds n accepted entries to the counter
func (m *Metrics) RecordEntries(n int) {
	m.EntriesAccepted.Add(float64(n))
}

// RecordRefund increments the refunds issued counter by 1
func (m *Metrics) RecordRefund() {
	m.RefundsIssued.Inc()
}

// RecordWinner increments the winners selected counter by 1
func (m *Metrics) RecordWinner() {
	m.WinnersSelected.Inc()
}

// RecordFeeWithdrawal increments the fee withdrawals counter by 1
func (m *Metrics) RecordFeeWithdrawal() {
	m.FeesWithdrawn.Inc()
}

// RecordConfigUpdate increments the config updates counter by 1
func (m *Metrics) RecordConfigUpdate() {
	m.ConfigUpdates.Inc()
}

// RecordRoundOpened increments the opened rounds counter by 1
func (m *Metrics) RecordRoundOpened() {
	m.RoundsOpened.Inc()
}

// RecordTransferRejected counts a rail rejection for the given transfer kind
func (m *Metrics) RecordTransferRejected(kind string) {
	m.TransfersRejected.WithLabelValues(kind).Inc()
}

// RecordRateLimited increments the rate limited requests counter by 1
func (m *Metrics) RecordRateLimited() {
	m.RateLimited.Inc()
}

// SetLedgerState updates the ledger gauges after a committed operation
func (m *Metrics) SetLedgerState(pool, fees uint64, active, slots int, epoch uint64) {
	m.PoolBalance.Set(float64(pool))
	m.FeeBalance.Set(float64(fees))
	m.ActiveEntrants.Set(float64(active))
	m.TotalSlots.Set(float64(slots))
	m.CurrentEpoch.Set(float64(epoch))
}

// ObserveRequest records one HTTP request observation
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveDraw records the wall time of one completed draw
func (m *Metrics) ObserveDraw(elapsed time.Duration) {
	m.DrawDuration.Observe(elapsed.Seconds())
}
