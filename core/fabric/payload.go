package fabric

import (
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// Inbound event names. These arrive from connected actors through a
// transport ingress.
const (
	EventConnect            = "connect"
	EventDisconnect         = "disconnect"
	EventEmergencyRequest   = "emergency_request"
	EventAcceptRequest      = "accept_request"
	EventDonorResponse      = "donor_response"
	EventUpdateLocation     = "update_location"
	EventUpdateAvailability = "update_availability"
)

// Outbound event names. Field names of the payloads below are part of the
// client protocol and must stay stable.
const (
	EventNewRequest      = "new_request"
	EventBloodNeeded     = "blood_needed"
	EventRequestAccepted = "request_accepted"
	EventDonorResponded  = "donor_responded"
	EventRequestExpired  = "request_expired"
	EventRequestAck      = "request_ack"
)

// ConnectPayload is the inbound payload registering an actor's connection
// and homing it in the cluster cell for its location.
type ConnectPayload struct {
	Location model.GeoPoint `json:"location"`
}

// EmergencyRequest is the inbound payload creating a blood request.
type EmergencyRequest struct {
	Requester model.Contact   `json:"requester"`
	Location  model.GeoPoint  `json:"location"`
	BloodType model.BloodType `json:"blood_type"`
	Urgency   model.Urgency   `json:"urgency"`
	Condition string          `json:"condition,omitempty"`
}

// AcceptRequest is the inbound payload for a hospital accept.
type AcceptRequest struct {
	RequestID  string `json:"request_id"`
	HospitalID string `json:"hospital_id"`
}

// DonorResponse is the inbound payload for a matched donor's reply.
type DonorResponse struct {
	RequestID string           `json:"request_id"`
	Response  model.DonorReply `json:"response"`
}

// LocationUpdate is the inbound payload re-homing an actor.
type LocationUpdate struct {
	Location model.GeoPoint `json:"location"`
}

// AvailabilityUpdate is the inbound payload toggling a donor's availability.
type AvailabilityUpdate struct {
	Available bool `json:"available"`
}

// NewRequestPayload goes to the request's cluster room (hospitals).
type NewRequestPayload struct {
	RequestID string          `json:"request_id"`
	Location  model.GeoPoint  `json:"location"`
	BloodType model.BloodType `json:"blood_type"`
	Urgency   model.Urgency   `json:"urgency"`
	Condition string          `json:"condition,omitempty"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// BloodNeededPayload goes to each matched donor's identity room.
type BloodNeededPayload struct {
	RequestID  string          `json:"request_id"`
	BloodType  model.BloodType `json:"blood_type"`
	Urgency    model.Urgency   `json:"urgency"`
	Location   model.GeoPoint  `json:"location"`
	Condition  string          `json:"condition,omitempty"`
	DistanceKm float64         `json:"distance_km"`
	Score      float64         `json:"score"`
}

// RequestAcceptedPayload goes to every matched donor when a hospital accepts.
type RequestAcceptedPayload struct {
	RequestID  string `json:"request_id"`
	HospitalID string `json:"hospital_id"`
}

// DonorRespondedPayload goes to the accepting hospital on a donor reply.
type DonorRespondedPayload struct {
	RequestID string           `json:"request_id"`
	DonorID   string           `json:"donor_id"`
	Response  model.DonorReply `json:"response"`
}

// RequestExpiredPayload goes to the accepting hospital and matched donors
// when the sweeper retires a request.
type RequestExpiredPayload struct {
	RequestID string `json:"request_id"`
}

// RequestAck acknowledges an emergency_request submission to its submitter.
type RequestAck struct {
	RequestID string    `json:"request_id"`
	Matched   int       `json:"matched"`
	ExpiresAt time.Time `json:"expires_at"`
}
