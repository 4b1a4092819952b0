// Package metrics holds the Prometheus collectors for plate validation,
// gate decisions and LPR latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
)

type Metrics struct {
	registry *prometheus.Registry

	plateValidations *prometheus.CounterVec
	gateDecisions    *prometheus.CounterVec
	lprDetect        prometheus.Histogram
}

// New registers all collectors on registry. A nil registry gets a fresh one,
// so tests can build as many instances as they like.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		plateValidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plate_validations_total",
				Help: "Plate validations by outcome, category and rejection kind",
			},
			[]string{"outcome", "category", "error_kind"},
		),
		gateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_decisions_total",
				Help: "Gate decisions taken for plate reads",
			},
			[]string{"decision"},
		),
		lprDetect: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lpr_detect_seconds",
			Help:    "Latency of text detection calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}
}

func (m *Metrics) PlateValid(category string) {
	if m == nil {
		return
	}
	m.plateValidations.WithLabelValues(OutcomeValid, category, "").Inc()
}

func (m *Metrics) PlateInvalid(kind string) {
	if m == nil {
		return
	}
	m.plateValidations.WithLabelValues(OutcomeInvalid, "", kind).Inc()
}

func (m *Metrics) GateDecision(decision string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveDetect(d time.Duration) {
	if m == nil {
		return
	}
	m.lprDetect.Observe(d.Seconds())
}

// Registry exposes the underlying registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
