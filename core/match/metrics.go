package match

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	matchScore          *prometheus.HistogramVec
	candidatesRetrieved *prometheus.HistogramVec
	retrievalFailures   prometheus.Counter
	assignmentsTotal    prometheus.Counter
	unassignedRequests  prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.HistogramVec, prometheus.Counter, prometheus.Counter, prometheus.Counter) {
	score := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_score",
			Help:    "Distribution of donor match scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"urgency"},
	)
	cands := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_candidates_returned",
			Help:    "Number of ranked candidates returned per retrieval",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10},
		},
		[]string{"urgency"},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_retrieval_failures_total",
			Help: "Number of failed geo retrieval queries",
		},
	)
	asn := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_assignments_total",
			Help: "Number of donor-request assignments produced",
		},
	)
	unasn := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_unassigned_requests_total",
			Help: "Number of batch requests left without a donor",
		},
	)
	return score, cands, fail, asn, unasn
}

func init() {
	matchScore, candidatesRetrieved, retrievalFailures, assignmentsTotal, unassignedRequests = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers match metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(matchScore, candidatesRetrieved, retrievalFailures, assignmentsTotal, unassignedRequests)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	matchScore, candidatesRetrieved, retrievalFailures, assignmentsTotal, unassignedRequests = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
