package model

import (
	"errors"
	"time"
)

// RequestTTL is the fixed lifetime of a blood request. ExpiresAt is set once
// at creation and never moves.
const RequestTTL = 24 * time.Hour

// RequestStatus is the lifecycle state of a blood request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DonorReply is a matched donor's answer to a request.
type DonorReply string

const (
	ReplyPending  DonorReply = "pending"
	ReplyAccepted DonorReply = "accepted"
	ReplyDeclined DonorReply = "declined"
)

// Contact identifies the person who raised a request.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// MatchedDonor records one donor contacted for a request.
type MatchedDonor struct {
	DonorID     string     `json:"donor_id"`
	MatchScore  float64    `json:"match_score"`
	ContactedAt time.Time  `json:"contacted_at"`
	Response    DonorReply `json:"response"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// BloodRequest is an urgent request for blood of a given type near a location.
type BloodRequest struct {
	ID                  string         `json:"id"`
	Requester           Contact        `json:"requester"`
	Location            GeoPoint       `json:"location"`
	BloodType           BloodType      `json:"blood_type"`
	Urgency             Urgency        `json:"urgency"`
	Condition           string         `json:"condition,omitempty"`
	Status              RequestStatus  `json:"status"`
	MatchedDonors       []MatchedDonor `json:"matched_donors,omitempty"`
	AcceptedHospitalIDs []string       `json:"accepted_hospital_ids,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	ExpiresAt           time.Time      `json:"expires_at"`
}

// ErrTerminalStatus is returned when a transition is attempted on a request
// that already reached completed or cancelled.
var ErrTerminalStatus = errors.New("request is in a terminal status")

// NewBloodRequest builds a pending request with the fixed 24h expiry.
func NewBloodRequest(id string, requester Contact, loc GeoPoint, bt BloodType, urgency Urgency, condition string, now time.Time) *BloodRequest {
	return &BloodRequest{
		ID:        id,
		Requester: requester,
		Location:  loc,
		BloodType: bt,
		Urgency:   urgency,
		Condition: condition,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(RequestTTL),
	}
}

// Expired reports whether the request deadline has passed.
func (r *BloodRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// HospitalAccepted reports whether the given hospital already accepted.
func (r *BloodRequest) HospitalAccepted(hospitalID string) bool {
	for _, id := range r.AcceptedHospitalIDs {
		if id == hospitalID {
			return true
		}
	}
	return false
}

// AcceptingHospital returns the first hospital that accepted, or "".
func (r *BloodRequest) AcceptingHospital() string {
	if len(r.AcceptedHospitalIDs) == 0 {
		return ""
	}
	return r.AcceptedHospitalIDs[0]
}

// Accept records a hospital accept. Re-accepting by the same hospital is a
// no-op. The returned flag is true only when this call performed the
// pending→accepted transition; callers must gate donor notification on it so
// concurrent accepts do not retrigger notification storms.
func (r *BloodRequest) Accept(hospitalID string) (transitioned bool, err error) {
	if r.Status.Terminal() {
		return false, ErrTerminalStatus
	}
	if !r.HospitalAccepted(hospitalID) {
		r.AcceptedHospitalIDs = append(r.AcceptedHospitalIDs, hospitalID)
	}
	if r.Status == StatusPending {
		r.Status = StatusAccepted
		return true, nil
	}
	return false, nil
}

// Complete marks an accepted request as done.
func (r *BloodRequest) Complete() error {
	if r.Status != StatusAccepted {
		return ErrTerminalStatus
	}
	r.Status = StatusCompleted
	return nil
}

// Cancel retires a pending or accepted request. Used by the expiry sweep; an
// accepted request crossing its deadline still expires.
func (r *BloodRequest) Cancel() error {
	if r.Status.Terminal() {
		return ErrTerminalStatus
	}
	r.Status = StatusCancelled
	return nil
}

// RecordDonorReply upserts the donor's entry in MatchedDonors: the entry is
// updated when the donor was matched before and appended otherwise.
func (r *BloodRequest) RecordDonorReply(donorID string, reply DonorReply, now time.Time) {
	for i := range r.MatchedDonors {
		if r.MatchedDonors[i].DonorID == donorID {
			r.MatchedDonors[i].Response = reply
			t := now
			r.MatchedDonors[i].RespondedAt = &t
			return
		}
	}
	t := now
	r.MatchedDonors = append(r.MatchedDonors, MatchedDonor{
		DonorID:     donorID,
		ContactedAt: now,
		Response:    reply,
		RespondedAt: &t,
	})
}
