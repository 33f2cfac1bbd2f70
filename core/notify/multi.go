package notify

import (
	"context"
	"errors"
	"sync"
)

// Multi fans one notification out to several transports, e.g. live
// connections plus an MQTT bridge. Every transport is attempted; errors are
// joined.
type Multi struct {
	Notifiers []Notifier
}

// NewMulti creates a Multi with the provided transports.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{Notifiers: notifiers}
}

// Notify implements Notifier.
func (m *Multi) Notify(ctx context.Context, target Target, event string, payload []byte) error {
	var errs []error
	for _, n := range m.Notifiers {
		if err := n.Notify(ctx, target, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Filtered restricts a transport to a subset of target kinds, silently
// dropping the rest. A Multi uses it to split addressing modes between
// transports so no actor hears the same event twice.
type Filtered struct {
	next  Notifier
	kinds map[TargetKind]bool
}

// Only wraps next so it handles just the listed kinds.
func Only(next Notifier, kinds ...TargetKind) *Filtered {
	set := make(map[TargetKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return &Filtered{next: next, kinds: set}
}

// Notify implements Notifier.
func (f *Filtered) Notify(ctx context.Context, target Target, event string, payload []byte) error {
	if !f.kinds[target.Kind] {
		return nil
	}
	return f.next.Notify(ctx, target, event, payload)
}

// Mock records notifications for tests.
type Mock struct {
	mu         sync.Mutex
	Deliveries []Delivery
	Fail       map[string]error
}

// Delivery is one recorded notification.
type Delivery struct {
	Target  Target
	Event   string
	Payload []byte
}

// NewMock creates an empty Mock.
func NewMock() *Mock { return &Mock{Fail: make(map[string]error)} }

// Notify implements Notifier. Configured failures keyed by target key are
// returned without recording.
func (m *Mock) Notify(_ context.Context, target Target, event string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Fail[target.Key]; ok {
		return err
	}
	m.Deliveries = append(m.Deliveries, Delivery{Target: target, Event: event, Payload: payload})
	return nil
}

// Sent returns a copy of the recorded deliveries.
func (m *Mock) Sent() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.Deliveries))
	copy(out, m.Deliveries)
	return out
}
