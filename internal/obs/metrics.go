package obs

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

// Metrics holds the till collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	transactions *prometheus.CounterVec
	dispensed    *prometheus.CounterVec
	runningTotal prometheus.Gauge
}

// NewMetrics registers the till collectors in reg. Passing a fresh
// prometheus.NewRegistry keeps tests and parallel tills isolated.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "till_transactions_total",
				Help: "Processed transactions by outcome.",
			},
			[]string{"outcome"},
		),
		dispensed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "till_change_units_dispensed_total",
				Help: "Units handed out as change, by denomination.",
			},
			[]string{"denomination"},
		),
		runningTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "till_running_total",
			Help: "Running total of the most recently updated till.",
		}),
	}
	reg.MustRegister(m.transactions, m.dispensed, m.runningTotal)
	return m
}

func (m *Metrics) ObserveRecord(rec domain.SummaryRecord) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(string(rec.Outcome)).Inc()
	for _, d := range rec.Change {
		m.dispensed.WithLabelValues(strconv.Itoa(d)).Inc()
	}
}

func (m *Metrics) SetRunningTotal(total int) {
	if m == nil {
		return
	}
	m.runningTotal.Set(float64(total))
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
