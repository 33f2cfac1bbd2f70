package fabric

import "fmt"

// ValidationError rejects malformed or out-of-range input before any
// mutation. It is reported to the caller only.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown request, donor or hospital id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError reports an operation invalid for the current request state,
// e.g. an accept on an expired request. Not retried, not fatal.
type ConflictError struct {
	RequestID string
	Reason    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("request %s: %s", e.RequestID, e.Reason)
}

// TransportError reports one failed outbound delivery. The delivery is
// logged and dropped; it never aborts the rest of a fan-out.
type TransportError struct {
	Target string
	Event  string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("deliver %s to %s: %v", e.Event, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
