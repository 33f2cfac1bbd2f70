package cluster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/core/notify"
)

// fakeConn records sends and can be told to fail.
type fakeConn struct {
	id     string
	events []string
	fail   bool
}

func (c *fakeConn) Identity() string { return c.id }

func (c *fakeConn) Send(event string, _ []byte) error {
	if c.fail {
		return errors.New("send failed")
	}
	c.events = append(c.events, event)
	return nil
}

var (
	cellA = model.GeoPoint{Lat: 28.61, Lon: 77.20}
	cellB = model.GeoPoint{Lat: 28.75, Lon: 77.20} // different 0.1-degree cell
)

func TestCellKey(t *testing.T) {
	require.Equal(t, CellKey(cellA), CellKey(model.GeoPoint{Lat: 28.619, Lon: 77.209}))
	require.NotEqual(t, CellKey(cellA), CellKey(cellB))
	require.Equal(t, "-287_-773", CellKey(model.GeoPoint{Lat: -28.61, Lon: -77.21}))
}

func TestRegistryConnectDisconnect(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{id: "don-1"}
	r.Connect(c, RoleDonor, cellA)
	require.Equal(t, 1, r.Len())

	got, ok := r.Identity("don-1")
	require.True(t, ok)
	require.Same(t, c, got.(*fakeConn))
	require.Len(t, r.Cell(cellA, RoleDonor), 1)

	r.Disconnect(c)
	require.Equal(t, 0, r.Len())
	require.Empty(t, r.Cell(cellA, ""))
}

func TestRegistryReconnectDisplacesOldHandle(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{id: "don-1"}
	replacement := &fakeConn{id: "don-1"}
	r.Connect(old, RoleDonor, cellA)
	r.Connect(replacement, RoleDonor, cellB)

	require.Equal(t, 1, r.Len())
	got, _ := r.Identity("don-1")
	require.Same(t, replacement, got.(*fakeConn))
	require.Empty(t, r.Cell(cellA, ""))
	require.Len(t, r.Cell(cellB, ""), 1)

	// Disconnecting the stale handle must not remove the replacement.
	r.Disconnect(old)
	require.Equal(t, 1, r.Len())
}

func TestRegistryRehome(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{id: "don-1"}
	r.Connect(c, RoleDonor, cellA)

	r.Rehome("don-1", cellB)
	require.Empty(t, r.Cell(cellA, ""))
	require.Len(t, r.Cell(cellB, ""), 1)

	// Unknown identity is a no-op.
	r.Rehome("ghost", cellA)
	require.Equal(t, 1, r.Len())
}

func TestRegistryCellRoleFilter(t *testing.T) {
	r := NewRegistry()
	r.Connect(&fakeConn{id: "don-1"}, RoleDonor, cellA)
	r.Connect(&fakeConn{id: "hosp-1"}, RoleHospital, cellA)

	require.Len(t, r.Cell(cellA, ""), 2)
	require.Len(t, r.Cell(cellA, RoleDonor), 1)
	require.Len(t, r.Cell(cellA, RoleHospital), 1)
	require.Len(t, r.All(), 2)
}

func TestNotifierIdentity(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{id: "don-1"}
	r.Connect(c, RoleDonor, cellA)
	n := NewNotifier(r)

	require.NoError(t, n.Notify(context.Background(), notify.Identity("don-1"), "blood_needed", nil))
	require.Equal(t, []string{"blood_needed"}, c.events)

	// No live connection: dropped silently.
	require.NoError(t, n.Notify(context.Background(), notify.Identity("ghost"), "blood_needed", nil))
}

func TestNotifierClusterKeepsDeliveringOnError(t *testing.T) {
	r := NewRegistry()
	bad := &fakeConn{id: "don-bad", fail: true}
	good := &fakeConn{id: "don-good"}
	r.Connect(bad, RoleDonor, cellA)
	r.Connect(good, RoleDonor, cellA)
	n := NewNotifier(r)

	err := n.Notify(context.Background(), notify.Cluster(CellKey(cellA)), "new_request", nil)
	require.Error(t, err)
	require.Equal(t, []string{"new_request"}, good.events)
}

func TestNotifierBroadcast(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	r.Connect(a, RoleDonor, cellA)
	r.Connect(b, RoleHospital, cellB)
	n := NewNotifier(r)

	require.NoError(t, n.Notify(context.Background(), notify.Broadcast(), "request_expired", nil))
	require.Equal(t, []string{"request_expired"}, a.events)
	require.Equal(t, []string{"request_expired"}, b.events)
}
