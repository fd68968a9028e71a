// Package metrics exposes dispatcher and command metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	DispatchTotal *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. When reg is also a
// Gatherer, Handler serves it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_commander_dispatch_total",
			Help: "Messages seen by the dispatcher, by outcome.",
		}, []string{"outcome"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_commander_command_runs_total",
			Help: "Command invocations, by command and result.",
		}, []string{"command", "result"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_commander_command_duration_seconds",
			Help:    "Command run time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
	}

	reg.MustRegister(m.DispatchTotal, m.RunsTotal, m.RunDuration)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// ObserveDispatch counts one dispatched message.
func (m *Metrics) ObserveDispatch(outcome string) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records one command run. err decides the result label.
func (m *Metrics) ObserveRun(command string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RunsTotal.WithLabelValues(command, result).Inc()
	m.RunDuration.WithLabelValues(command).Observe(took.Seconds())
}

// Handler serves the registry the metrics were registered with, or the
// default gatherer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
