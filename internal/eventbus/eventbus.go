package eventbus

// Event is an arbitrary domain event carried on the untyped bus.
type Event interface{}

// EventBus decouples the dispatch fabric and the expiry sweeper from their
// observers, such as the metrics collector.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus, a TypedBus carrying untyped events.
type Bus struct {
	TypedBus[Event]
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }
