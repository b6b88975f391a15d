// Package metrics records assistant activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assistant"

// Recorder implements reasoning.Recorder and the dialogue event hook.
type Recorder struct {
	registry *prometheus.Registry

	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	answersTotal    *prometheus.CounterVec
	eventsTotal     *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
}

// NewRecorder registers every collector on a private registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reasoning_attempts_total",
				Help:      "Reasoning service attempts by outcome",
			},
			[]string{"outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reasoning_attempt_duration_seconds",
				Help:      "Duration of reasoning service attempts in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		answersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reasoning_answers_total",
				Help:      "Answers returned to users by source",
			},
			[]string{"source"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dialogue_events_total",
				Help:      "Dialogue events by kind and the state they were handled in",
			},
			[]string{"kind", "state"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_store_errors_total",
				Help:      "Conversation state store failures by operation",
			},
			[]string{"op"},
		),
	}
}

func (r *Recorder) ObserveAttempt(outcome string, d time.Duration) {
	r.attemptsTotal.WithLabelValues(outcome).Inc()
	r.attemptDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (r *Recorder) ObserveAnswer(source string) {
	r.answersTotal.WithLabelValues(source).Inc()
}

// ObserveEvent counts one handled dialogue event.
func (r *Recorder) ObserveEvent(kind, state string) {
	r.eventsTotal.WithLabelValues(kind, state).Inc()
}

// ObserveStoreError counts a failed load or save of conversation state.
func (r *Recorder) ObserveStoreError(op string) {
	r.storeErrors.WithLabelValues(op).Inc()
}

// Registry exposes the private registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
