// Package kpi defines per-donor daily matching totals derived from the match
// log.
package kpi

import "time"

// Record aggregates one donor's matching activity for one day.
type Record struct {
	DonorID  string
	Date     time.Time
	Notified int
	Accepted int
}

// Store persists KPI records.
type Store interface {
	Add(Record) error
	Query(donorID string, start, end time.Time) ([]Record, error)
	Close() error
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
