package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/harsheyeditor/OneBlood/core/metrics"
	"github.com/harsheyeditor/OneBlood/core/model"
)

func newPromSink(t *testing.T) (*PromSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	sink, ok := sinkIf.(*PromSink)
	require.True(t, ok)
	return sink, reg
}

func TestPromSinkRecordMatchResult(t *testing.T) {
	sink, reg := newPromSink(t)
	require.NoError(t, sink.RecordMatchResult([]coremetrics.MatchResult{
		{RequestID: "r1", DonorID: "d1", Urgency: model.UrgencyCritical, BloodType: model.OPositive, Score: 91, Assigned: true},
		{RequestID: "r1", DonorID: "d2", Urgency: model.UrgencyCritical, BloodType: model.ONegative, Score: 75},
	}))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["match_results_total"])
	require.True(t, names["match_result_score"])

	counter := sink.matches.WithLabelValues("critical", "O+", "true")
	require.Equal(t, 1.0, testutil.ToFloat64(counter))
}

func TestPromSinkRecorders(t *testing.T) {
	sink, _ := newPromSink(t)

	require.NoError(t, sink.RecordNotification(coremetrics.NotificationEvent{
		Event: "blood_needed", Delivered: true, Latency: 20 * time.Millisecond,
	}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.notifications.WithLabelValues("blood_needed", "true")))

	require.NoError(t, sink.RecordResponse(coremetrics.ResponseEvent{Reply: model.ReplyAccepted}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.responses.WithLabelValues("accepted")))

	require.NoError(t, sink.RecordSweep(coremetrics.SweepEvent{Expired: 3}))
	require.Equal(t, 3.0, testutil.ToFloat64(sink.expired))

	require.NoError(t, sink.RecordConnections(7))
	require.Equal(t, 7.0, testutil.ToFloat64(sink.connections))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	// A second sink on the same registry reuses the existing collectors.
	again, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	require.NoError(t, again.RecordMatchResult([]coremetrics.MatchResult{{Urgency: model.UrgencyNormal, BloodType: model.APositive}}))
}
