package fabric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsProcessed  *prometheus.CounterVec
	eventErrors      *prometheus.CounterVec
	notifySent       *prometheus.CounterVec
	notifyFailures   *prometheus.CounterVec
	notifyLatency    *prometheus.HistogramVec
	connectedActors  prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Gauge) {
	ev := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabric_events_total",
			Help: "Number of inbound actor events processed",
		},
		[]string{"event"},
	)
	evErr := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabric_event_errors_total",
			Help: "Number of inbound actor events rejected with an error",
		},
		[]string{"event"},
	)
	sent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabric_notifications_sent_total",
			Help: "Number of outbound notifications delivered",
		},
		[]string{"event"},
	)
	fail := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabric_notifications_failed_total",
			Help: "Number of outbound notifications dropped after a delivery failure",
		},
		[]string{"event"},
	)
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fabric_notify_latency_seconds",
			Help:    "Latency of a single outbound notification delivery",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)
	conns := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fabric_connected_actors",
			Help: "Number of live actor connections",
		},
	)
	return ev, evErr, sent, fail, lat, conns
}

func init() {
	eventsProcessed, eventErrors, notifySent, notifyFailures, notifyLatency, connectedActors = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers fabric metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(eventsProcessed, eventErrors, notifySent, notifyFailures, notifyLatency, connectedActors)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	eventsProcessed, eventErrors, notifySent, notifyFailures, notifyLatency, connectedActors = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
