package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vulpemventures/coinsim/internal/core/domain"
)

type simulationMetrics struct {
	deposits       prometheus.Counter
	withdrawals    *prometheus.CounterVec
	fees           prometheus.Counter
	selectedInputs prometheus.Histogram
	poolSize       prometheus.Gauge
}

func newSimulationMetrics(registerer prometheus.Registerer) *simulationMetrics {
	factory := promauto.With(registerer)
	return &simulationMetrics{
		deposits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "coinsim",
				Name:      "deposits_total",
				Help:      "Number of deposits replayed",
			},
		),
		withdrawals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coinsim",
				Name:      "withdrawals_total",
				Help:      "Number of withdrawal attempts",
			},
			[]string{
				"algorithm", // algorithm that funded the withdrawal, or failed
			},
		),
		fees: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "coinsim",
				Name:      "fees_total",
				Help:      "Fees paid by successful withdrawals in satoshi",
			},
		),
		selectedInputs: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "coinsim",
				Name:      "selected_inputs",
				Help:      "Number of inputs selected by successful withdrawals",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
			},
		),
		poolSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "coinsim",
				Name:      "pool_size",
				Help:      "Number of candidates in the pool after the last withdrawal",
			},
		),
	}
}

func (m *simulationMetrics) observeDeposit() {
	if m == nil {
		return
	}
	m.deposits.Inc()
}

func (m *simulationMetrics) observeOutcome(record domain.OutcomeRecord) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(record.Algorithm.String()).Inc()
	m.poolSize.Set(float64(record.UtxoCountAfter))
	if record.IsFailed() {
		return
	}
	if record.Fee != nil {
		m.fees.Add(float64(*record.Fee))
	}
	m.selectedInputs.Observe(float64(len(record.Inputs)))
}
