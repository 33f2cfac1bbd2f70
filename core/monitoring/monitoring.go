// Package monitoring exposes a process-wide error reporter. The default
// reporter discards everything; deployments wire Sentry in through the infra
// implementation at startup.
package monitoring

import (
	"sync/atomic"
	"time"
)

// Tags annotate a reported error, typically with the request or component
// the failure belongs to.
type Tags map[string]string

// Reporter receives errors and panics from the matching pipeline.
type Reporter interface {
	ReportError(err error, tags Tags)
	CapturePanic()
	Flush(timeout time.Duration)
}

// Discard is a Reporter that drops everything.
type Discard struct{}

func (Discard) ReportError(error, Tags) {}
func (Discard) CapturePanic()           {}
func (Discard) Flush(time.Duration)     {}

var active atomic.Pointer[Reporter]

func init() {
	var d Reporter = Discard{}
	active.Store(&d)
}

// Use installs r as the process-wide reporter. A nil r is ignored.
func Use(r Reporter) {
	if r != nil {
		active.Store(&r)
	}
}

// ReportError forwards err to the active reporter. Nil errors are dropped.
func ReportError(err error, tags Tags) {
	if err == nil {
		return
	}
	(*active.Load()).ReportError(err, tags)
}

// CapturePanic records an in-flight panic when deferred in a goroutine.
// The panic is re-raised after capture.
func CapturePanic() {
	(*active.Load()).CapturePanic()
}

// Flush blocks until buffered events are delivered or timeout elapses.
func Flush(timeout time.Duration) {
	(*active.Load()).Flush(timeout)
}
