package eventbus

import (
	"testing"
	"time"
)

type requestExpired struct {
	RequestID string
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(requestExpired{RequestID: "req-1"})

	for _, ch := range []<-chan Event{a, b} {
		got, ok := recvEvent(t, ch).(requestExpired)
		if !ok || got.RequestID != "req-1" {
			t.Fatalf("got %#v, want requestExpired{req-1}", got)
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	if _, open := <-sub; open {
		t.Fatalf("channel still open after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(requestExpired{RequestID: "req-2"})
}

func TestBusSlowSubscriberDropsEvents(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()

	// Overfill the subscriber buffer; extra events are dropped, never block.
	for i := 0; i < subscriberBuffer*3; i++ {
		bus.Publish(requestExpired{RequestID: "flood"})
	}

	n := 0
	for {
		select {
		case <-sub:
			n++
		default:
			if n != subscriberBuffer {
				t.Fatalf("buffered %d events, want %d", n, subscriberBuffer)
			}
			return
		}
	}
}

func TestBusCloseIsTerminal(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Close()
	bus.Close()

	if _, open := <-sub; open {
		t.Fatalf("subscriber channel open after close")
	}
	if late := bus.Subscribe(); late == nil {
		t.Fatalf("nil channel from subscribe after close")
	} else if _, open := <-late; open {
		t.Fatalf("late subscriber got an open channel")
	}
	bus.Publish(requestExpired{})
}
