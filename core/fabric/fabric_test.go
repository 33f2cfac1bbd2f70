package fabric

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harsheyeditor/OneBlood/core/auth"
	"github.com/harsheyeditor/OneBlood/core/cluster"
	"github.com/harsheyeditor/OneBlood/core/donorstatus"
	"github.com/harsheyeditor/OneBlood/core/events"
	"github.com/harsheyeditor/OneBlood/core/match"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/infra/logger"
	"github.com/harsheyeditor/OneBlood/infra/store"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

// capture records every notification the fabric emits.
type capture struct {
	mu   sync.Mutex
	sent []sentEvent
	fail bool
}

type sentEvent struct {
	Target notify.Target
	Event  string
}

func (c *capture) Notify(_ context.Context, target notify.Target, event string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("transport down")
	}
	c.sent = append(c.sent, sentEvent{Target: target, Event: event})
	return nil
}

func (c *capture) events(event string) []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sentEvent
	for _, s := range c.sent {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

type harness struct {
	fab    *Fabric
	mem    *store.Memory
	out    *capture
	bus    *eventbus.Bus
	status *donorstatus.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemory()
	out := &capture{}
	bus := eventbus.New()
	finder := match.NewFinder(mem, logger.NopLogger{})
	fab, err := NewFabric(cluster.NewRegistry(), mem, mem, finder, match.NewAllocator(),
		out, time.Second, nil, bus, logger.NopLogger{})
	require.NoError(t, err)
	status := donorstatus.NewMemoryStore()
	fab.SetStatusStore(status)
	return &harness{fab: fab, mem: mem, out: out, bus: bus, status: status}
}

func (h *harness) seedDonor(t *testing.T, id string, bt model.BloodType, lat float64) {
	t.Helper()
	require.NoError(t, h.mem.PutDonor(context.Background(), model.Donor{
		ID: id, BloodType: bt, Location: model.GeoPoint{Lat: lat, Lon: 77.2090}, Available: true,
	}))
}

func validSubmission() EmergencyRequest {
	return EmergencyRequest{
		Requester: model.Contact{Name: "City Hospital", Phone: "555"},
		Location:  model.GeoPoint{Lat: 28.6139, Lon: 77.2090},
		BloodType: model.OPositive,
		Urgency:   model.UrgencyCritical,
	}
}

func TestHandleEmergencyRequest(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	h.seedDonor(t, "don-2", model.ONegative, 28.6589)
	h.seedDonor(t, "don-far", model.OPositive, 29.9) // out of every radius

	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)
	require.Equal(t, 2, ack.Matched)
	require.NotEmpty(t, ack.RequestID)

	req, err := h.mem.GetRequest(context.Background(), ack.RequestID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, req.Status)
	require.Len(t, req.MatchedDonors, 2)
	for _, md := range req.MatchedDonors {
		require.Equal(t, model.ReplyPending, md.Response)
	}

	require.Len(t, h.out.events(EventBloodNeeded), 2)
	rooms := h.out.events(EventNewRequest)
	require.Len(t, rooms, 1)
	require.Equal(t, notify.KindCluster, rooms[0].Target.Kind)

	// Both contacted donors show up in the status snapshot.
	require.Len(t, h.status.List(), 2)
}

func TestHandleEmergencyRequestValidation(t *testing.T) {
	h := newHarness(t)
	var ve *ValidationError

	sub := validSubmission()
	sub.Location.Lat = 95
	_, err := h.fab.HandleEmergencyRequest(context.Background(), sub)
	require.ErrorAs(t, err, &ve)

	sub = validSubmission()
	sub.BloodType = "C+"
	_, err = h.fab.HandleEmergencyRequest(context.Background(), sub)
	require.ErrorAs(t, err, &ve)

	sub = validSubmission()
	sub.Requester.Phone = ""
	_, err = h.fab.HandleEmergencyRequest(context.Background(), sub)
	require.ErrorAs(t, err, &ve)
}

func TestHandleEmergencyRequestSurvivesNotifyFailure(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	h.out.fail = true
	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)
	require.Equal(t, 1, ack.Matched)

	// The request is stored even though every delivery was dropped.
	_, err = h.mem.GetRequest(context.Background(), ack.RequestID)
	require.NoError(t, err)

	// Each dropped delivery surfaces on the bus as a transport failure.
	var failed *events.NotifyFailed
	for done := false; !done; {
		select {
		case e := <-sub:
			if nf, ok := e.(events.NotifyFailed); ok {
				failed = &nf
				done = true
			}
		case <-time.After(time.Second):
			done = true
		}
	}
	require.NotNil(t, failed)
	var te *TransportError
	require.ErrorAs(t, failed.Err, &te)
	require.Equal(t, EventNewRequest, failed.Event)
}

func hospital(id string) auth.Actor {
	return auth.Actor{Identity: id, Role: cluster.RoleHospital, Verified: true}
}

func donor(id string) auth.Actor {
	return auth.Actor{Identity: id, Role: cluster.RoleDonor}
}

func TestHandleAcceptIdempotent(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)

	require.NoError(t, h.fab.HandleAccept(context.Background(), hospital("hosp-1"), ack.RequestID))
	require.Len(t, h.out.events(EventRequestAccepted), 1)

	// Re-accept by the same hospital: no-op, no second fan-out.
	require.NoError(t, h.fab.HandleAccept(context.Background(), hospital("hosp-1"), ack.RequestID))
	require.Len(t, h.out.events(EventRequestAccepted), 1)

	// A second hospital is recorded without renotifying donors.
	require.NoError(t, h.fab.HandleAccept(context.Background(), hospital("hosp-2"), ack.RequestID))
	require.Len(t, h.out.events(EventRequestAccepted), 1)

	req, err := h.mem.GetRequest(context.Background(), ack.RequestID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, req.Status)
	require.Equal(t, []string{"hosp-1", "hosp-2"}, req.AcceptedHospitalIDs)
}

func TestHandleAcceptRejections(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)

	var ve *ValidationError
	unverified := auth.Actor{Identity: "hosp-x", Role: cluster.RoleHospital}
	require.ErrorAs(t, h.fab.HandleAccept(context.Background(), unverified, ack.RequestID), &ve)
	require.ErrorAs(t, h.fab.HandleAccept(context.Background(), donor("don-1"), ack.RequestID), &ve)

	var nf *NotFoundError
	require.ErrorAs(t, h.fab.HandleAccept(context.Background(), hospital("hosp-1"), "ghost"), &nf)

	// Expired request: conflict.
	var ce *ConflictError
	h.fab.SetNow(func() time.Time { return time.Now().Add(25 * time.Hour) })
	require.ErrorAs(t, h.fab.HandleAccept(context.Background(), hospital("hosp-1"), ack.RequestID), &ce)
}

func TestHandleDonorResponse(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)
	require.NoError(t, h.fab.HandleAccept(context.Background(), hospital("hosp-1"), ack.RequestID))

	require.NoError(t, h.fab.HandleDonorResponse(context.Background(), donor("don-1"), ack.RequestID, model.ReplyAccepted))

	// The accepting hospital hears about the reply.
	responded := h.out.events(EventDonorResponded)
	require.Len(t, responded, 1)
	require.Equal(t, notify.Identity("hosp-1"), responded[0].Target)

	req, err := h.mem.GetRequest(context.Background(), ack.RequestID)
	require.NoError(t, err)
	require.Equal(t, model.ReplyAccepted, req.MatchedDonors[0].Response)

	// The donor's stored history gained a responded entry with a time.
	d, err := h.mem.GetDonor(context.Background(), "don-1")
	require.NoError(t, err)
	require.Len(t, d.ResponseHistory, 1)
	require.True(t, d.ResponseHistory[0].Responded)
	require.NotNil(t, d.ResponseHistory[0].ResponseTimeMinutes)

	var ve *ValidationError
	require.ErrorAs(t, h.fab.HandleDonorResponse(context.Background(), donor("don-1"), ack.RequestID, "maybe"), &ve)
}

func TestHandleDonorResponseRequiresDonorRole(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)

	var ve *ValidationError
	require.ErrorAs(t, h.fab.HandleDonorResponse(context.Background(), hospital("hosp-1"), ack.RequestID, model.ReplyAccepted), &ve)

	// The hospital identity did not sneak into the match list.
	req, err := h.mem.GetRequest(context.Background(), ack.RequestID)
	require.NoError(t, err)
	require.Len(t, req.MatchedDonors, 1)
	require.Equal(t, "don-1", req.MatchedDonors[0].DonorID)
}

func TestHandleDonorResponseWithoutAccept(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)
	ack, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)

	require.NoError(t, h.fab.HandleDonorResponse(context.Background(), donor("don-1"), ack.RequestID, model.ReplyDeclined))
	// No accepting hospital yet, so nobody is notified.
	require.Empty(t, h.out.events(EventDonorResponded))
}

func TestHandleLocationAndAvailability(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)

	require.NoError(t, h.fab.HandleLocationUpdate(context.Background(), donor("don-1"), model.GeoPoint{Lat: 19.0, Lon: 72.8}))
	d, err := h.mem.GetDonor(context.Background(), "don-1")
	require.NoError(t, err)
	require.Equal(t, 19.0, d.Location.Lat)

	var ve *ValidationError
	require.ErrorAs(t, h.fab.HandleLocationUpdate(context.Background(), donor("don-1"), model.GeoPoint{Lat: 99, Lon: 0}), &ve)

	require.NoError(t, h.fab.HandleAvailability(context.Background(), donor("don-1"), false))
	d, err = h.mem.GetDonor(context.Background(), "don-1")
	require.NoError(t, err)
	require.False(t, d.Available)

	require.ErrorAs(t, h.fab.HandleAvailability(context.Background(), hospital("hosp-1"), true), &ve)

	var nf *NotFoundError
	require.ErrorAs(t, h.fab.HandleAvailability(context.Background(), donor("ghost"), true), &nf)
}

func TestAssignBatchResolvesContention(t *testing.T) {
	h := newHarness(t)
	h.seedDonor(t, "don-1", model.OPositive, 28.6319)

	subNormal := validSubmission()
	subNormal.Urgency = model.UrgencyNormal
	ackNormal, err := h.fab.HandleEmergencyRequest(context.Background(), subNormal)
	require.NoError(t, err)

	ackCritical, err := h.fab.HandleEmergencyRequest(context.Background(), validSubmission())
	require.NoError(t, err)

	asn, err := h.fab.AssignBatch(context.Background(), []string{ackNormal.RequestID, ackCritical.RequestID, "ghost"})
	require.NoError(t, err)
	require.Len(t, asn, 1)
	require.Equal(t, ackCritical.RequestID, asn[0].RequestID)
	require.Equal(t, "don-1", asn[0].DonorID)
}

// testConn is a live connection handle recording every event sent to it.
type testConn struct {
	id   string
	mu   sync.Mutex
	sent []string
}

func (c *testConn) Identity() string { return c.id }

func (c *testConn) Send(event string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, event)
	return nil
}

func (c *testConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func TestConnectLifecycle(t *testing.T) {
	h := newHarness(t)
	v := auth.NewStaticVerifier()
	v.Register("tok-h", auth.Actor{Identity: "hosp-1", Role: cluster.RoleHospital, Verified: true})
	h.fab.SetVerifier(v)
	here := model.GeoPoint{Lat: 28.6139, Lon: 77.2090}

	conn := &testConn{id: "hosp-1"}
	actor, err := h.fab.Connect(context.Background(), "tok-h", here, conn)
	require.NoError(t, err)
	require.Equal(t, "hosp-1", actor.Identity)
	got, ok := h.fab.Registry().Identity("hosp-1")
	require.True(t, ok)
	require.Same(t, conn, got)

	// An unknown token registers nothing.
	_, err = h.fab.Connect(context.Background(), "bogus", here, &testConn{id: "intruder"})
	require.ErrorIs(t, err, auth.ErrUnknownIdentity)
	require.Equal(t, 1, h.fab.Registry().Len())

	// Out-of-range coordinates register nothing.
	var ve *ValidationError
	_, err = h.fab.Connect(context.Background(), "tok-h", model.GeoPoint{Lat: 99}, &testConn{id: "hosp-1"})
	require.ErrorAs(t, err, &ve)

	h.fab.DisconnectIdentity("hosp-1")
	require.Equal(t, 0, h.fab.Registry().Len())
	h.fab.DisconnectIdentity("ghost")
}

// A hospital that connected near the incident hears new_request through the
// registry-backed notifier; after it reports a new location its old cell
// room goes quiet for it.
func TestConnectedHospitalHearsClusterRoom(t *testing.T) {
	mem := store.NewMemory()
	registry := cluster.NewRegistry()
	out := &capture{}
	finder := match.NewFinder(mem, logger.NopLogger{})
	fab, err := NewFabric(registry, mem, mem, finder, match.NewAllocator(),
		notify.NewMulti(cluster.NewNotifier(registry), out), time.Second, nil, eventbus.New(), logger.NopLogger{})
	require.NoError(t, err)

	sub := validSubmission()
	conn := &testConn{id: "hosp-1"}
	_, err = fab.Connect(context.Background(), "hosp-1", sub.Location, conn)
	require.NoError(t, err)

	_, err = fab.HandleEmergencyRequest(context.Background(), sub)
	require.NoError(t, err)
	require.Contains(t, conn.events(), EventNewRequest)

	// Rehome far away: the next request in the old cell no longer reaches it.
	require.NoError(t, fab.HandleLocationUpdate(context.Background(),
		hospital("hosp-1"), model.GeoPoint{Lat: 19.0760, Lon: 72.8777}))
	before := len(conn.events())
	_, err = fab.HandleEmergencyRequest(context.Background(), sub)
	require.NoError(t, err)
	require.Len(t, conn.events(), before)
}
