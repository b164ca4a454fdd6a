package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

const namespace = "farmledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	Entries                *prometheus.CounterVec
	EntryAmount            *prometheus.CounterVec
	InsufficientFundsTotal *prometheus.CounterVec
	DuplicateEvents        *prometheus.CounterVec
	Mismatches             prometheus.Counter

	// Accrual metrics
	Ticks             prometheus.Counter
	TickDuration      prometheus.Histogram
	TickPositions     prometheus.Histogram
	PositionsAccrued  *prometheus.CounterVec
	Distributions     *prometheus.CounterVec
	DistributionDepth prometheus.Histogram

	// Withdrawal metrics
	Withdrawals *prometheus.CounterVec

	// Store metrics
	StoreRetries *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec

	// Ops HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers all metrics with the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Entries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entries_total",
				Help:      "Completed ledger entries by kind and currency",
			},
			[]string{"kind", "currency"},
		),
		EntryAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entry_amount_total",
				Help:      "Absolute amount moved by kind and currency",
			},
			[]string{"kind", "currency"},
		),
		InsufficientFundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "insufficient_funds_total",
				Help:      "Debits rejected for insufficient funds",
			},
			[]string{"kind"},
		),
		DuplicateEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_events_total",
				Help:      "Redelivered events absorbed as no-ops",
			},
			[]string{"scope"},
		),
		Mismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_mismatches_total",
			Help:      "Accounts whose balance differs from the sum of their entries",
		}),

		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accrual_ticks_total",
			Help:      "Accrual ticks completed",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "accrual_tick_duration_seconds",
			Help:      "Duration of accrual ticks",
			Buckets:   []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}),
		TickPositions: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "accrual_tick_positions",
			Help:      "Positions visited per tick",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		PositionsAccrued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accrual_positions_total",
				Help:      "Position accruals by result",
			},
			[]string{"result"},
		),
		Distributions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "referral_distributions_total",
				Help:      "Referral fan-outs by result",
			},
			[]string{"result"},
		),
		DistributionDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "referral_distribution_levels",
			Help:      "Sponsor levels credited per fan-out",
			Buckets:   prometheus.LinearBuckets(0, 2, 11),
		}),

		Withdrawals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawals_total",
				Help:      "Withdrawal transitions by resulting state",
			},
			[]string{"state"},
		),

		StoreRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_retries_total",
				Help:      "Retried database transactions by SQLSTATE",
			},
			[]string{"code"},
		),

		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_total",
				Help:      "Outbox relay attempts by result",
			},
			[]string{"result"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total ops HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_duration_seconds",
				Help:      "Ops HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) EntryRecorded(kind domain.EntryKind, currency domain.Currency, amount decimal.Decimal) {
	m.Entries.WithLabelValues(string(kind), string(currency)).Inc()
	m.EntryAmount.WithLabelValues(string(kind), string(currency)).Add(amount.Abs().InexactFloat64())
}

func (m *Metrics) InsufficientFunds(kind domain.EntryKind) {
	m.InsufficientFundsTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) DuplicateEvent(scope string) {
	m.DuplicateEvents.WithLabelValues(scope).Inc()
}

// ReconciliationMismatch counts a mismatch. The account id is left out of
// the labels to keep cardinality bounded.
func (m *Metrics) ReconciliationMismatch(string) {
	m.Mismatches.Inc()
}

func (m *Metrics) Distribution(result string, levels int) {
	m.Distributions.WithLabelValues(result).Inc()
	m.DistributionDepth.Observe(float64(levels))
}

func (m *Metrics) PositionAccrued(result string) {
	m.PositionsAccrued.WithLabelValues(result).Inc()
}

func (m *Metrics) TickCompleted(duration time.Duration, positions int) {
	m.Ticks.Inc()
	m.TickDuration.Observe(duration.Seconds())
	m.TickPositions.Observe(float64(positions))
}

func (m *Metrics) WithdrawalTransition(state domain.WithdrawalState) {
	m.Withdrawals.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) StoreRetry(code string) {
	if code == "" {
		code = "connection"
	}
	m.StoreRetries.WithLabelValues(code).Inc()
}

func (m *Metrics) OutboxRelayed(result string) {
	m.OutboxPublished.WithLabelValues(result).Inc()
}
