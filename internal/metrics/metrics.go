// Package metrics exposes Prometheus collectors for the tick engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/econ"
)

type Metrics struct {
	ticksTotal        *prometheus.CounterVec
	tickDuration      prometheus.Histogram
	botPurchases      prometheus.Counter
	budgetSpentCents  prometheus.Counter
	taxCollectedCents prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ticksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "econ",
			Name:      "ticks_total",
			Help:      "Tick coordinator invocations by outcome.",
		}, []string{"outcome"}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "econ",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a full tick pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		botPurchases: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "econ",
			Name:      "bot_purchases_total",
			Help:      "Executed synthetic marketplace purchases.",
		}),
		budgetSpentCents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "econ",
			Name:      "budget_spent_cents_total",
			Help:      "Bot budget actually spent, in cents.",
		}),
		taxCollectedCents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "econ",
			Name:      "tax_collected_cents_total",
			Help:      "Wealth tax collected, in cents.",
		}),
	}
}

func (m *Metrics) ObserveTick(outcome string, d time.Duration, summary econ.TickSummary) {
	m.ticksTotal.WithLabelValues(outcome).Inc()
	if outcome == "completed" {
		m.tickDuration.Observe(d.Seconds())
		m.botPurchases.Add(float64(summary.BotPurchases))
		m.budgetSpentCents.Add(float64(summary.TotalSpentCents))
	}
}

func (m *Metrics) ObserveTaxSweep(summary econ.TaxSweepSummary) {
	m.taxCollectedCents.Add(float64(summary.CollectedCents))
}
