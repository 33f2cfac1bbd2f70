package metrics

import (
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// MatchResult represents one donor ranked for a request, to be recorded.
type MatchResult struct {
	RequestID  string
	DonorID    string
	Urgency    model.Urgency
	BloodType  model.BloodType
	Score      float64
	DistanceKm float64
	Assigned   bool
	MatchTime  time.Time
}

// MatchSink records match results for observability purposes.
type MatchSink interface {
	RecordMatchResult(results []MatchResult) error
}

// NotificationEvent captures one outbound delivery attempt.
type NotificationEvent struct {
	Target    string
	Event     string
	Delivered bool
	Latency   time.Duration
	Error     string
	Time      time.Time
}

// NotificationRecorder records outbound notification attempts.
type NotificationRecorder interface {
	RecordNotification(ev NotificationEvent) error
}

// ResponseEvent captures a donor reply to a request.
type ResponseEvent struct {
	RequestID string
	DonorID   string
	Reply     model.DonorReply
	Time      time.Time
}

// ResponseRecorder records donor replies.
type ResponseRecorder interface {
	RecordResponse(ev ResponseEvent) error
}

// SweepEvent captures one expiry sweep pass.
type SweepEvent struct {
	Expired  int
	Duration time.Duration
	Time     time.Time
}

// SweepRecorder records expiry sweep passes.
type SweepRecorder interface {
	RecordSweep(ev SweepEvent) error
}

// ConnectionsRecorder records the number of live connections.
type ConnectionsRecorder interface {
	RecordConnections(n int) error
}

// NopSink implements MatchSink and all recorders with no-op methods.
type NopSink struct{}

func (NopSink) RecordMatchResult([]MatchResult) error      { return nil }
func (NopSink) RecordNotification(NotificationEvent) error { return nil }
func (NopSink) RecordResponse(ResponseEvent) error         { return nil }
func (NopSink) RecordSweep(SweepEvent) error               { return nil }
func (NopSink) RecordConnections(int) error                { return nil }
