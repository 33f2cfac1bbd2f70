package match

// RetrievalError wraps a geo index or store failure during candidate
// retrieval. The affected request stays pending with an empty match list and
// can be retried on a later trigger.
type RetrievalError struct {
	RequestID string
	Err       error
}

func (e *RetrievalError) Error() string {
	return "candidate retrieval for request " + e.RequestID + ": " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error { return e.Err }
