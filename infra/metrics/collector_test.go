package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harsheyeditor/OneBlood/core/events"
	coremetrics "github.com/harsheyeditor/OneBlood/core/metrics"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

type recordingSink struct {
	mu            sync.Mutex
	responses     []coremetrics.ResponseEvent
	notifications []coremetrics.NotificationEvent
}

func (s *recordingSink) RecordMatchResult([]coremetrics.MatchResult) error { return nil }

func (s *recordingSink) RecordResponse(ev coremetrics.ResponseEvent) error {
	s.mu.Lock()
	s.responses = append(s.responses, ev)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	s.mu.Lock()
	s.notifications = append(s.notifications, ev)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses), len(s.notifications)
}

func TestEventCollectorRecordsBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := eventbus.New()
	sink := &recordingSink{}
	StartEventCollector(ctx, bus, sink)

	bus.Publish(events.DonorResponded{
		RequestID: "r1", DonorID: "don-1", Reply: model.ReplyAccepted, Time: time.Now(),
	})
	bus.Publish(events.NotifyFailed{
		Target: notify.Identity("don-2"), Event: "blood_needed",
		Err: errors.New("broker down"), Latency: 30 * time.Millisecond,
	})

	require.Eventually(t, func() bool {
		r, n := sink.counts()
		return r == 1 && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, "don-1", sink.responses[0].DonorID)
	require.Equal(t, model.ReplyAccepted, sink.responses[0].Reply)
	require.False(t, sink.notifications[0].Delivered)
	require.Equal(t, "broker down", sink.notifications[0].Error)
}

func TestEventCollectorNilArgs(t *testing.T) {
	// Must not panic or spin.
	StartEventCollector(context.Background(), nil, &recordingSink{})
	StartEventCollector(context.Background(), eventbus.New(), nil)
}
