// Package sweeper retires blood requests past their deadline on a recurring
// timer and notifies the affected parties.
package sweeper

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harsheyeditor/OneBlood/core/events"
	"github.com/harsheyeditor/OneBlood/core/fabric"
	"github.com/harsheyeditor/OneBlood/core/logger"
	"github.com/harsheyeditor/OneBlood/core/metrics"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/core/monitoring"
	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/core/store"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

// Sweeper finds pending and accepted requests whose deadline passed,
// transitions them to cancelled and publishes request_expired. It runs
// concurrently with inbound accepts; the last state check wins, so a request
// accepted moments before its deadline still expires.
type Sweeper struct {
	requests store.RequestStore
	notifier notify.Notifier
	bus      eventbus.EventBus
	sink     metrics.MatchSink
	log      logger.Logger
	interval time.Duration
	now      func() time.Time
}

// New creates a Sweeper. interval zero selects the five minute default.
func New(requests store.RequestStore, notifier notify.Notifier, bus eventbus.EventBus, sink metrics.MatchSink, log logger.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Sweeper{
		requests: requests,
		notifier: notifier,
		bus:      bus,
		sink:     sink,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Sweeper) SetNow(now func() time.Time) { s.now = now }

// Run sweeps on the configured interval until the context is cancelled.
// Per-sweep errors are logged and never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Errorf("expiry sweep: %v", err)
				monitoring.ReportError(err, monitoring.Tags{"component": "sweeper"})
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs one expiry pass and returns the number of requests retired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	start := time.Now()
	expired, err := s.requests.FindExpired(ctx, []model.RequestStatus{model.StatusPending, model.StatusAccepted}, now)
	if err != nil {
		return 0, err
	}
	retired := 0
	for _, req := range expired {
		if err := req.Cancel(); err != nil {
			// Raced with a completion; skip.
			continue
		}
		if err := s.requests.PutRequest(ctx, req); err != nil {
			s.log.Errorf("store request %s: %v", req.ID, err)
			continue
		}
		retired++
		s.notifyExpired(ctx, req)
		if s.bus != nil {
			s.bus.Publish(events.RequestExpired{RequestID: req.ID, Urgency: req.Urgency, Time: now})
		}
	}
	if rec, ok := s.sink.(metrics.SweepRecorder); ok {
		if err := rec.RecordSweep(metrics.SweepEvent{Expired: retired, Duration: time.Since(start), Time: now}); err != nil {
			s.log.Errorf("metrics error: %v", err)
		}
	}
	if retired > 0 {
		s.log.Infof("expired %d requests", retired)
	}
	return retired, nil
}

// notifyExpired tells the accepting hospital, if any, and every matched
// donor. A failed delivery is dropped and logged.
func (s *Sweeper) notifyExpired(ctx context.Context, req *model.BloodRequest) {
	payload, err := json.Marshal(fabric.RequestExpiredPayload{RequestID: req.ID})
	if err != nil {
		s.log.Errorf("encode request_expired: %v", err)
		return
	}
	var targets []notify.Target
	if hospital := req.AcceptingHospital(); hospital != "" {
		targets = append(targets, notify.Identity(hospital))
	}
	for _, md := range req.MatchedDonors {
		targets = append(targets, notify.Identity(md.DonorID))
	}
	for _, t := range targets {
		nctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := s.notifier.Notify(nctx, t, fabric.EventRequestExpired, payload); err != nil {
			s.log.Warnf("notify request_expired to %s dropped: %v", t.Key, err)
		}
		cancel()
	}
}
