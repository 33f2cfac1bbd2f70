package cluster

import (
	"context"

	"github.com/harsheyeditor/OneBlood/core/notify"
)

// Notifier delivers events to the connections tracked by a Registry. A send
// to an identity with no live connection is dropped silently: the actor will
// catch up from the store when it reconnects.
type Notifier struct {
	reg *Registry
}

// NewNotifier wraps the registry as a notify.Notifier.
func NewNotifier(reg *Registry) *Notifier { return &Notifier{reg: reg} }

// Notify implements notify.Notifier over live connection handles. Cluster
// and broadcast targets keep delivering to the remaining handles when one
// send fails; the first error is returned for accounting.
func (n *Notifier) Notify(ctx context.Context, target notify.Target, event string, payload []byte) error {
	switch target.Kind {
	case notify.KindIdentity:
		conn, ok := n.reg.Identity(target.Key)
		if !ok {
			return nil
		}
		return n.send(ctx, conn, event, payload)
	case notify.KindCluster:
		return n.sendAll(ctx, n.reg.cellConns(target.Key), event, payload)
	case notify.KindBroadcast:
		return n.sendAll(ctx, n.reg.All(), event, payload)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, conn Conn, event string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return conn.Send(event, payload)
}

func (n *Notifier) sendAll(ctx context.Context, conns []Conn, event string, payload []byte) error {
	var first error
	for _, c := range conns {
		if err := n.send(ctx, c, event, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// cellConns returns a snapshot of the connections in a cell by key.
func (r *Registry) cellConns(cell string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Conn
	for _, e := range r.byCell[cell] {
		out = append(out, e.conn)
	}
	return out
}
