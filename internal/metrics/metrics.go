// Package metrics exposes auto-save activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formbuilder/pkg/builder"
)

const namespace = "formbuilder"

// Recorder implements builder.Recorder on its own registry so several
// collections (or tests) never collide on the default one.
type Recorder struct {
	registry  *prometheus.Registry
	saves     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	questions prometheus.Gauge
	requests  *prometheus.CounterVec
}

var _ builder.Recorder = (*Recorder)(nil)

// New registers the formbuilder collectors plus the Go runtime collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Auto-save attempts by outcome.",
		}, []string{"outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Time spent in the save call.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5},
		}, []string{"outcome"}),
		questions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "questions",
			Help:      "Questions currently in the collection.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "code"}),
	}
}

// ObserveSave counts one pipeline outcome. Invalid saves never reach the
// saver, so they carry no latency sample.
func (r *Recorder) ObserveSave(outcome builder.Outcome, d time.Duration) {
	r.saves.WithLabelValues(string(outcome)).Inc()
	if outcome != builder.OutcomeInvalid {
		r.latency.WithLabelValues(string(outcome)).Observe(d.Seconds())
	}
}

// SetQuestions records the collection size.
func (r *Recorder) SetQuestions(n int) {
	r.questions.Set(float64(n))
}

// ObserveRequest counts one served request.
func (r *Recorder) ObserveRequest(route, code string) {
	r.requests.WithLabelValues(route, code).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
