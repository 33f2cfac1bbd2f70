package events

import (
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// RequestCreated is published when a new blood request is accepted into the
// system.
type RequestCreated struct {
	Request model.BloodRequest
}

// DonorsMatched is published after candidate retrieval for a request.
type DonorsMatched struct {
	RequestID string
	Urgency   model.Urgency
	DonorIDs  []string
	Scores    map[string]float64
}

// RequestAccepted is published only when an accept call actually performed
// the pending→accepted transition.
type RequestAccepted struct {
	RequestID  string
	HospitalID string
	Time       time.Time
}

// DonorResponded is published for every donor reply.
type DonorResponded struct {
	RequestID string
	DonorID   string
	Reply     model.DonorReply
	Time      time.Time
}

// RequestExpired is published by the expiry sweep for each retired request.
type RequestExpired struct {
	RequestID string
	Urgency   model.Urgency
	Time      time.Time
}
