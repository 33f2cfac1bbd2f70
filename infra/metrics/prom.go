package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/harsheyeditor/OneBlood/core/metrics"
)

// PromSink records matching activity in Prometheus metrics.
type PromSink struct {
	matches       *prometheus.CounterVec
	scores        *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	notifyLatency prometheus.Histogram
	responses     *prometheus.CounterVec
	expired       prometheus.Counter
	connections   prometheus.Gauge
}

// NewPromSink registers matching metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MatchSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MatchSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_results_total",
			Help: "Total number of donors ranked for requests",
		}, []string{"urgency", "blood_type", "assigned"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "match_result_score",
			Help:    "Composite scores of ranked donors",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"urgency"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total outbound notification attempts",
		}, []string{"event", "delivered"}),
		notifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_latency_seconds",
			Help:    "Time spent delivering one notification",
			Buckets: prometheus.DefBuckets,
		}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donor_responses_total",
			Help: "Total donor replies by outcome",
		}, []string{"reply"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "requests_expired_total",
			Help: "Total requests retired by the expiry sweeper",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "connected_actors",
			Help: "Number of live actor connections",
		}),
	}

	collectors := []prometheus.Collector{
		s.matches, s.scores, s.notifications, s.notifyLatency,
		s.responses, s.expired, s.connections,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	s.matches = collectors[0].(*prometheus.CounterVec)
	s.scores = collectors[1].(*prometheus.HistogramVec)
	s.notifications = collectors[2].(*prometheus.CounterVec)
	s.notifyLatency = collectors[3].(prometheus.Histogram)
	s.responses = collectors[4].(*prometheus.CounterVec)
	s.expired = collectors[5].(prometheus.Counter)
	s.connections = collectors[6].(prometheus.Gauge)
	return s, nil
}

// RecordMatchResult increments the counter and score histogram per result.
func (s *PromSink) RecordMatchResult(res []coremetrics.MatchResult) error {
	for _, r := range res {
		s.matches.WithLabelValues(string(r.Urgency), string(r.BloodType), strconv.FormatBool(r.Assigned)).Inc()
		s.scores.WithLabelValues(string(r.Urgency)).Observe(r.Score)
	}
	return nil
}

// RecordNotification counts the attempt and observes its latency.
func (s *PromSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	s.notifications.WithLabelValues(ev.Event, strconv.FormatBool(ev.Delivered)).Inc()
	s.notifyLatency.Observe(ev.Latency.Seconds())
	return nil
}

// RecordResponse counts the donor reply by outcome.
func (s *PromSink) RecordResponse(ev coremetrics.ResponseEvent) error {
	s.responses.WithLabelValues(string(ev.Reply)).Inc()
	return nil
}

// RecordSweep adds the pass's expiry count.
func (s *PromSink) RecordSweep(ev coremetrics.SweepEvent) error {
	s.expired.Add(float64(ev.Expired))
	return nil
}

// RecordConnections sets the live-connection gauge.
func (s *PromSink) RecordConnections(n int) error {
	s.connections.Set(float64(n))
	return nil
}
