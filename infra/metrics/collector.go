package metrics

import (
	"context"
	"time"

	"github.com/harsheyeditor/OneBlood/core/events"
	coremetrics "github.com/harsheyeditor/OneBlood/core/metrics"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MatchSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.DonorResponded:
					if r, ok := sink.(coremetrics.ResponseRecorder); ok {
						_ = r.RecordResponse(coremetrics.ResponseEvent{
							RequestID: e.RequestID,
							DonorID:   e.DonorID,
							Reply:     e.Reply,
							Time:      e.Time,
						})
					}
				case events.NotifyFailed:
					if r, ok := sink.(coremetrics.NotificationRecorder); ok {
						_ = r.RecordNotification(coremetrics.NotificationEvent{
							Target:    e.Target.Key,
							Event:     e.Event,
							Delivered: false,
							Latency:   e.Latency,
							Error:     e.Err.Error(),
							Time:      time.Now(),
						})
					}
				}
			}
		}
	}()
}
