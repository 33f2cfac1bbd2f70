// Package matchlog persists matching decisions for audit and the operations
// API.
package matchlog

import (
	"context"
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// Record captures one matching decision: the request as created and the
// donors contacted with their scores.
type Record struct {
	Timestamp      time.Time          `json:"timestamp"`
	Request        model.BloodRequest `json:"request"`
	DonorsNotified []string           `json:"donors_notified"`
	Scores         map[string]float64 `json:"scores"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	DonorID   string
	RequestID string
	Urgency   model.Urgency
}

// LogStore persists Records and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// matches applies the in-process filters shared by the file-backed stores.
func (q Query) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Urgency != "" && r.Request.Urgency != q.Urgency {
		return false
	}
	if q.RequestID != "" && r.Request.ID != q.RequestID {
		return false
	}
	if q.DonorID != "" {
		found := false
		for _, id := range r.DonorsNotified {
			if id == q.DonorID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
