// Package fabric routes inbound actor events through the matching engine and
// fans the results out to exactly the right set of connected actors.
package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harsheyeditor/OneBlood/core/auth"
	"github.com/harsheyeditor/OneBlood/core/cluster"
	"github.com/harsheyeditor/OneBlood/core/donorstatus"
	"github.com/harsheyeditor/OneBlood/core/events"
	"github.com/harsheyeditor/OneBlood/core/logger"
	"github.com/harsheyeditor/OneBlood/core/match"
	"github.com/harsheyeditor/OneBlood/core/matchlog"
	"github.com/harsheyeditor/OneBlood/core/metrics"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/core/monitoring"
	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/core/store"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

// Fabric owns the connection registry and applies inbound events to the
// backing stores, gating outbound notifications on the state transitions
// that actually occurred. Per-event errors are isolated: nothing here may
// bring down a connection handler loop.
type Fabric struct {
	registry      *cluster.Registry
	donors        store.DonorStore
	requests      store.RequestStore
	finder        *match.Finder
	alloc         *match.Allocator
	notifier      notify.Notifier
	notifyTimeout time.Duration
	sink          metrics.MatchSink
	bus           eventbus.EventBus
	log           logger.Logger

	mu       sync.Mutex
	store    matchlog.LogStore
	status   donorstatus.Store
	verifier auth.Verifier
	now      func() time.Time
}

// NewFabric creates a fabric. notifyTimeout bounds each outbound delivery so
// one slow connection cannot stall fan-out to the rest of a cluster; zero
// selects a default of two seconds.
func NewFabric(registry *cluster.Registry, donors store.DonorStore, requests store.RequestStore, finder *match.Finder, alloc *match.Allocator, notifier notify.Notifier, notifyTimeout time.Duration, sink metrics.MatchSink, bus eventbus.EventBus, log logger.Logger) (*Fabric, error) {
	if registry == nil || donors == nil || requests == nil || finder == nil || alloc == nil || notifier == nil {
		return nil, fmt.Errorf("fabric: nil parameter provided to NewFabric")
	}
	if notifyTimeout <= 0 {
		notifyTimeout = 2 * time.Second
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Fabric{
		registry:      registry,
		donors:        donors,
		requests:      requests,
		finder:        finder,
		alloc:         alloc,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		sink:          sink,
		bus:           bus,
		log:           log,
		now:           time.Now,
	}, nil
}

// SetMatchLog configures the store used to persist match decisions.
func (f *Fabric) SetMatchLog(s matchlog.LogStore) {
	f.mu.Lock()
	f.store = s
	f.mu.Unlock()
}

// SetStatusStore configures the store used to track per-donor live status.
func (f *Fabric) SetStatusStore(s donorstatus.Store) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

// SetNow overrides the clock, for tests.
func (f *Fabric) SetNow(now func() time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fabric) clock() time.Time {
	f.mu.Lock()
	now := f.now
	f.mu.Unlock()
	return now()
}

// Registry exposes the connection registry for transport adapters.
func (f *Fabric) Registry() *cluster.Registry { return f.registry }

// Connect authenticates the credentials, registers the connection under its
// identity and homes it in the cluster cell for loc.
func (f *Fabric) Connect(ctx context.Context, token string, loc model.GeoPoint, conn cluster.Conn) (auth.Actor, error) {
	actor, err := f.verify(ctx, token)
	if err != nil {
		return auth.Actor{}, err
	}
	if !loc.Valid() {
		return auth.Actor{}, &ValidationError{Field: "location", Reason: "out of range"}
	}
	f.registry.Connect(conn, actor.Role, loc)
	connectedActors.Set(float64(f.registry.Len()))
	return actor, nil
}

// SetVerifier installs the identity verifier consulted at connect time.
// A fabric without one trusts the transport layer's authentication.
func (f *Fabric) SetVerifier(v auth.Verifier) {
	f.mu.Lock()
	f.verifier = v
	f.mu.Unlock()
}

// Verify authenticates a transport token without registering a connection.
// Message-oriented ingresses use it to resolve the sender of each event.
func (f *Fabric) Verify(ctx context.Context, token string) (auth.Actor, error) {
	return f.verify(ctx, token)
}

func (f *Fabric) verify(ctx context.Context, token string) (auth.Actor, error) {
	f.mu.Lock()
	v := f.verifier
	f.mu.Unlock()
	if v == nil {
		return auth.Actor{Identity: token}, nil
	}
	return v.Verify(ctx, token)
}

// Disconnect drops every registry entry for the connection's identity. Late
// publishes to the removed handle are simply dropped by the transport.
func (f *Fabric) Disconnect(conn cluster.Conn) {
	f.registry.Disconnect(conn)
	connectedActors.Set(float64(f.registry.Len()))
}

// DisconnectIdentity drops whatever connection is registered under identity.
// Message-oriented ingresses use it; connection-holding transports keep the
// handle and call Disconnect, which is stale-safe across reconnects.
func (f *Fabric) DisconnectIdentity(identity string) {
	if conn, ok := f.registry.Identity(identity); ok {
		f.registry.Disconnect(conn)
	}
	connectedActors.Set(float64(f.registry.Len()))
}

// HandleEmergencyRequest creates a blood request, runs candidate retrieval,
// pushes new_request to the request's cluster room and blood_needed to each
// matched donor, and returns the submitter acknowledgment. A failed geo
// query leaves the request pending with an empty match list; it is not an
// error for the submitter.
func (f *Fabric) HandleEmergencyRequest(ctx context.Context, sub EmergencyRequest) (RequestAck, error) {
	eventsProcessed.WithLabelValues(EventEmergencyRequest).Inc()
	if err := validateSubmission(sub); err != nil {
		eventErrors.WithLabelValues(EventEmergencyRequest).Inc()
		return RequestAck{}, err
	}
	now := f.clock()
	req := model.NewBloodRequest(uuid.NewString(), sub.Requester, sub.Location, sub.BloodType, sub.Urgency, sub.Condition, now)

	cands, err := f.finder.FindCandidates(ctx, req)
	if err != nil {
		// Leave the request pending and retriable; the cluster room still
		// learns about it.
		f.log.Errorf("retrieval failed for request %s: %v", req.ID, err)
		monitoring.ReportError(err, monitoring.Tags{"request_id": req.ID})
	}
	for _, c := range cands {
		req.MatchedDonors = append(req.MatchedDonors, model.MatchedDonor{
			DonorID:     c.Donor.ID,
			MatchScore:  c.Score,
			ContactedAt: now,
			Response:    model.ReplyPending,
		})
	}
	if err := f.requests.PutRequest(ctx, req); err != nil {
		eventErrors.WithLabelValues(EventEmergencyRequest).Inc()
		return RequestAck{}, fmt.Errorf("store request: %w", err)
	}

	if f.bus != nil {
		f.bus.Publish(events.RequestCreated{Request: *req})
	}

	f.publishNewRequest(ctx, req)
	f.publishBloodNeeded(ctx, req, cands)
	f.recordMatch(ctx, req, cands, now)

	return RequestAck{RequestID: req.ID, Matched: len(cands), ExpiresAt: req.ExpiresAt}, nil
}

func validateSubmission(sub EmergencyRequest) error {
	if !sub.Location.Valid() {
		return &ValidationError{Field: "location", Reason: "out of range"}
	}
	if !sub.BloodType.Valid() {
		return &ValidationError{Field: "blood_type", Reason: "unknown blood group"}
	}
	if sub.Requester.Phone == "" {
		return &ValidationError{Field: "requester.phone", Reason: "required"}
	}
	return nil
}

// HandleAccept applies a hospital accept. Only verified hospitals may
// accept, and only pending or already-accepted, unexpired requests qualify.
// Donor notification is gated on the pending→accepted transition actually
// occurring so a second accept is an idempotent no-op.
func (f *Fabric) HandleAccept(ctx context.Context, actor auth.Actor, requestID string) error {
	eventsProcessed.WithLabelValues(EventAcceptRequest).Inc()
	if actor.Role != cluster.RoleHospital || !actor.Verified {
		eventErrors.WithLabelValues(EventAcceptRequest).Inc()
		return &ValidationError{Field: "hospital", Reason: "not a verified hospital"}
	}
	req, err := f.requests.GetRequest(ctx, requestID)
	if err != nil {
		eventErrors.WithLabelValues(EventAcceptRequest).Inc()
		return &NotFoundError{Kind: "request", ID: requestID}
	}
	now := f.clock()
	if req.Status.Terminal() {
		eventErrors.WithLabelValues(EventAcceptRequest).Inc()
		return &ConflictError{RequestID: requestID, Reason: "status is " + string(req.Status)}
	}
	if req.Expired(now) {
		eventErrors.WithLabelValues(EventAcceptRequest).Inc()
		return &ConflictError{RequestID: requestID, Reason: "request expired"}
	}
	transitioned, err := req.Accept(actor.Identity)
	if err != nil {
		eventErrors.WithLabelValues(EventAcceptRequest).Inc()
		return &ConflictError{RequestID: requestID, Reason: err.Error()}
	}
	if err := f.requests.PutRequest(ctx, req); err != nil {
		eventErrors.WithLabelValues(EventAcceptRequest).Inc()
		return fmt.Errorf("store request: %w", err)
	}
	if !transitioned {
		return nil
	}
	if f.bus != nil {
		f.bus.Publish(events.RequestAccepted{RequestID: requestID, HospitalID: actor.Identity, Time: now})
	}
	payload := RequestAcceptedPayload{RequestID: requestID, HospitalID: actor.Identity}
	targets := make([]notify.Target, 0, len(req.MatchedDonors))
	for _, md := range req.MatchedDonors {
		targets = append(targets, notify.Identity(md.DonorID))
	}
	f.fanOut(ctx, targets, EventRequestAccepted, payload)
	return nil
}

// HandleDonorResponse upserts the donor's entry in the request's match list,
// appends to the donor's response history and, when an accepting hospital
// exists, notifies its identity room.
func (f *Fabric) HandleDonorResponse(ctx context.Context, actor auth.Actor, requestID string, reply model.DonorReply) error {
	eventsProcessed.WithLabelValues(EventDonorResponse).Inc()
	if actor.Role != cluster.RoleDonor {
		eventErrors.WithLabelValues(EventDonorResponse).Inc()
		return &ValidationError{Field: "role", Reason: "only donors respond to requests"}
	}
	if reply != model.ReplyAccepted && reply != model.ReplyDeclined {
		eventErrors.WithLabelValues(EventDonorResponse).Inc()
		return &ValidationError{Field: "response", Reason: "must be accepted or declined"}
	}
	req, err := f.requests.GetRequest(ctx, requestID)
	if err != nil {
		eventErrors.WithLabelValues(EventDonorResponse).Inc()
		return &NotFoundError{Kind: "request", ID: requestID}
	}
	now := f.clock()

	var contactedAt time.Time
	for _, md := range req.MatchedDonors {
		if md.DonorID == actor.Identity {
			contactedAt = md.ContactedAt
			break
		}
	}
	req.RecordDonorReply(actor.Identity, reply, now)
	if err := f.requests.PutRequest(ctx, req); err != nil {
		eventErrors.WithLabelValues(EventDonorResponse).Inc()
		return fmt.Errorf("store request: %w", err)
	}

	f.appendDonorHistory(ctx, actor.Identity, requestID, reply, contactedAt, now)

	if f.bus != nil {
		f.bus.Publish(events.DonorResponded{RequestID: requestID, DonorID: actor.Identity, Reply: reply, Time: now})
	}
	if rec, ok := f.sink.(metrics.ResponseRecorder); ok {
		if err := rec.RecordResponse(metrics.ResponseEvent{RequestID: requestID, DonorID: actor.Identity, Reply: reply, Time: now}); err != nil {
			f.log.Errorf("metrics error: %v", err)
		}
	}
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status != nil {
		status.RecordReply(actor.Identity, requestID, reply, now)
	}

	if hospital := req.AcceptingHospital(); hospital != "" {
		f.fanOut(ctx, []notify.Target{notify.Identity(hospital)}, EventDonorResponded,
			DonorRespondedPayload{RequestID: requestID, DonorID: actor.Identity, Response: reply})
	}
	return nil
}

func (f *Fabric) appendDonorHistory(ctx context.Context, donorID, requestID string, reply model.DonorReply, contactedAt, now time.Time) {
	d, err := f.donors.GetDonor(ctx, donorID)
	if err != nil {
		f.log.Warnf("donor %s not found while recording history: %v", donorID, err)
		return
	}
	rec := model.ResponseRecord{RequestID: requestID, Responded: reply == model.ReplyAccepted}
	if !contactedAt.IsZero() {
		mins := now.Sub(contactedAt).Minutes()
		rec.ResponseTimeMinutes = &mins
	}
	d.ResponseHistory = append(d.ResponseHistory, rec)
	if err := f.donors.PutDonor(ctx, d); err != nil {
		f.log.Errorf("store donor %s: %v", donorID, err)
	}
}

// HandleLocationUpdate persists the actor's new coordinates and re-homes its
// cluster membership: removed from the old cell first, then added to the new
// one.
func (f *Fabric) HandleLocationUpdate(ctx context.Context, actor auth.Actor, loc model.GeoPoint) error {
	eventsProcessed.WithLabelValues(EventUpdateLocation).Inc()
	if !loc.Valid() {
		eventErrors.WithLabelValues(EventUpdateLocation).Inc()
		return &ValidationError{Field: "location", Reason: "out of range"}
	}
	if actor.Role == cluster.RoleDonor {
		d, err := f.donors.GetDonor(ctx, actor.Identity)
		if err != nil {
			eventErrors.WithLabelValues(EventUpdateLocation).Inc()
			return &NotFoundError{Kind: "donor", ID: actor.Identity}
		}
		d.Location = loc
		if err := f.donors.PutDonor(ctx, d); err != nil {
			eventErrors.WithLabelValues(EventUpdateLocation).Inc()
			return fmt.Errorf("store donor: %w", err)
		}
	}
	f.registry.Rehome(actor.Identity, loc)
	return nil
}

// HandleAvailability persists a donor's availability flag.
func (f *Fabric) HandleAvailability(ctx context.Context, actor auth.Actor, available bool) error {
	eventsProcessed.WithLabelValues(EventUpdateAvailability).Inc()
	if actor.Role != cluster.RoleDonor {
		eventErrors.WithLabelValues(EventUpdateAvailability).Inc()
		return &ValidationError{Field: "role", Reason: "only donors toggle availability"}
	}
	d, err := f.donors.GetDonor(ctx, actor.Identity)
	if err != nil {
		eventErrors.WithLabelValues(EventUpdateAvailability).Inc()
		return &NotFoundError{Kind: "donor", ID: actor.Identity}
	}
	d.Available = available
	if err := f.donors.PutDonor(ctx, d); err != nil {
		eventErrors.WithLabelValues(EventUpdateAvailability).Inc()
		return fmt.Errorf("store donor: %w", err)
	}
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status != nil {
		status.SetAvailability(actor.Identity, available)
	}
	return nil
}

// AssignBatch resolves donor contention across the given pending requests:
// each request is re-resolved into a ranked candidate list, the greedy
// allocator claims donors in urgency order and the winners are contacted.
// Requests left without a donor stay pending for a later trigger.
func (f *Fabric) AssignBatch(ctx context.Context, requestIDs []string) ([]match.Assignment, error) {
	now := f.clock()
	var batch []match.BatchRequest
	byID := make(map[string]*model.BloodRequest)
	candsByReq := make(map[string][]match.Candidate)
	for _, id := range requestIDs {
		req, err := f.requests.GetRequest(ctx, id)
		if err != nil {
			f.log.Warnf("batch: request %s not found", id)
			continue
		}
		if req.Status != model.StatusPending || req.Expired(now) {
			continue
		}
		cands, err := f.finder.FindCandidates(ctx, req)
		if err != nil {
			f.log.Errorf("batch retrieval for %s: %v", id, err)
			continue
		}
		byID[req.ID] = req
		candsByReq[req.ID] = cands
		batch = append(batch, match.BatchRequest{Request: req, Candidates: cands})
	}
	assignments := f.alloc.Assign(batch)
	for _, asn := range assignments {
		req := byID[asn.RequestID]
		var chosen *match.Candidate
		for i := range candsByReq[asn.RequestID] {
			if candsByReq[asn.RequestID][i].Donor.ID == asn.DonorID {
				chosen = &candsByReq[asn.RequestID][i]
				break
			}
		}
		req.MatchedDonors = append(req.MatchedDonors, model.MatchedDonor{
			DonorID:     asn.DonorID,
			MatchScore:  asn.Score,
			ContactedAt: now,
			Response:    model.ReplyPending,
		})
		if err := f.requests.PutRequest(ctx, req); err != nil {
			f.log.Errorf("store request %s: %v", req.ID, err)
			continue
		}
		if chosen != nil {
			f.publishBloodNeeded(ctx, req, []match.Candidate{*chosen})
		}
	}
	return assignments, nil
}

func (f *Fabric) publishNewRequest(ctx context.Context, req *model.BloodRequest) {
	payload := NewRequestPayload{
		RequestID: req.ID,
		Location:  req.Location,
		BloodType: req.BloodType,
		Urgency:   req.Urgency,
		Condition: req.Condition,
		ExpiresAt: req.ExpiresAt,
	}
	cell := cluster.CellKey(req.Location)
	f.fanOut(ctx, []notify.Target{notify.Cluster(cell)}, EventNewRequest, payload)
}

func (f *Fabric) publishBloodNeeded(ctx context.Context, req *model.BloodRequest, cands []match.Candidate) {
	now := f.clock()
	var donorIDs []string
	scores := make(map[string]float64, len(cands))
	var wg sync.WaitGroup
	for _, c := range cands {
		donorIDs = append(donorIDs, c.Donor.ID)
		scores[c.Donor.ID] = c.Score
		payload := BloodNeededPayload{
			RequestID:  req.ID,
			BloodType:  req.BloodType,
			Urgency:    req.Urgency,
			Location:   req.Location,
			Condition:  req.Condition,
			DistanceKm: c.DistanceKm,
			Score:      c.Score,
		}
		wg.Add(1)
		go func(id string, p BloodNeededPayload) {
			defer wg.Done()
			f.notifyOne(ctx, notify.Identity(id), EventBloodNeeded, p)
		}(c.Donor.ID, payload)

		f.mu.Lock()
		status := f.status
		f.mu.Unlock()
		if status != nil {
			status.RecordContact(c.Donor.ID, req.ID, now)
		}
	}
	wg.Wait()
	if f.bus != nil && len(donorIDs) > 0 {
		f.bus.Publish(events.DonorsMatched{RequestID: req.ID, Urgency: req.Urgency, DonorIDs: donorIDs, Scores: scores})
	}
}

// fanOut delivers one payload to many targets concurrently. A single failed
// delivery is logged and dropped; it never aborts the rest of the fan-out.
func (f *Fabric) fanOut(ctx context.Context, targets []notify.Target, event string, payload any) {
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t notify.Target) {
			defer wg.Done()
			f.notifyOne(ctx, t, event, payload)
		}(t)
	}
	wg.Wait()
}

func (f *Fabric) notifyOne(ctx context.Context, target notify.Target, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		f.log.Errorf("encode %s payload: %v", event, err)
		return
	}
	nctx, cancel := context.WithTimeout(ctx, f.notifyTimeout)
	defer cancel()
	start := time.Now()
	err = f.notifier.Notify(nctx, target, event, body)
	dur := time.Since(start)
	notifyLatency.WithLabelValues(event).Observe(dur.Seconds())
	ev := metrics.NotificationEvent{Target: target.Key, Event: event, Delivered: err == nil, Latency: dur, Time: start}
	if err != nil {
		terr := &TransportError{Target: target.Key, Event: event, Err: err}
		ev.Error = terr.Error()
		notifyFailures.WithLabelValues(event).Inc()
		f.log.Warnf("notify dropped: %v", terr)
		if f.bus != nil {
			f.bus.Publish(events.NotifyFailed{Target: target, Event: event, Err: terr, Latency: dur})
		}
	} else {
		notifySent.WithLabelValues(event).Inc()
	}
	if rec, ok := f.sink.(metrics.NotificationRecorder); ok {
		if rerr := rec.RecordNotification(ev); rerr != nil {
			f.log.Errorf("metrics error: %v", rerr)
		}
	}
}

func (f *Fabric) recordMatch(ctx context.Context, req *model.BloodRequest, cands []match.Candidate, now time.Time) {
	var results []metrics.MatchResult
	for _, c := range cands {
		results = append(results, metrics.MatchResult{
			RequestID:  req.ID,
			DonorID:    c.Donor.ID,
			Urgency:    req.Urgency,
			BloodType:  req.BloodType,
			Score:      c.Score,
			DistanceKm: c.DistanceKm,
			Assigned:   true,
			MatchTime:  now,
		})
	}
	if len(results) > 0 {
		if err := f.sink.RecordMatchResult(results); err != nil {
			f.log.Errorf("metrics error: %v", err)
		}
	}
	f.mu.Lock()
	logStore := f.store
	f.mu.Unlock()
	if logStore == nil {
		return
	}
	rec := matchlog.Record{
		Timestamp: now,
		Request:   *req,
		Scores:    make(map[string]float64, len(cands)),
	}
	for _, c := range cands {
		rec.DonorsNotified = append(rec.DonorsNotified, c.Donor.ID)
		rec.Scores[c.Donor.ID] = c.Score
	}
	if err := logStore.Append(ctx, rec); err != nil {
		f.log.Errorf("match log append: %v", err)
	}
}
