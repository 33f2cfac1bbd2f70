// Package notify defines the outbound notification capability required by
// the dispatch fabric. Transports (MQTT, mocks) live under infra.
package notify

import "context"

// TargetKind selects the addressing mode of a notification.
type TargetKind string

const (
	// KindIdentity addresses a single actor's identity room.
	KindIdentity TargetKind = "identity"
	// KindCluster addresses every actor homed in a cluster cell.
	KindCluster TargetKind = "cluster"
	// KindBroadcast addresses every connected actor.
	KindBroadcast TargetKind = "broadcast"
)

// Target is the destination of a notification.
type Target struct {
	Kind TargetKind
	Key  string
}

// Identity targets one actor.
func Identity(id string) Target { return Target{Kind: KindIdentity, Key: id} }

// Cluster targets a cluster cell.
func Cluster(cell string) Target { return Target{Kind: KindCluster, Key: cell} }

// Broadcast targets every connected actor.
func Broadcast() Target { return Target{Kind: KindBroadcast} }

// Notifier delivers a named event with a JSON payload to a target. A failed
// delivery is the caller's to log and drop; it must never abort a fan-out.
type Notifier interface {
	Notify(ctx context.Context, target Target, event string, payload []byte) error
}
