package events

import (
	"time"

	"github.com/harsheyeditor/OneBlood/core/notify"
)

// NotifyFailed is published when one outbound delivery fails. The delivery is
// dropped, never retried.
type NotifyFailed struct {
	Target  notify.Target
	Event   string
	Err     error
	Latency time.Duration
}
