package model

import "time"

// MinDonationInterval is the minimum time a donor must wait between two
// donations before becoming eligible again.
const MinDonationInterval = 56 * 24 * time.Hour

// ResponseRecord is one entry of a donor's response history, most recent
// last. ResponseTimeMinutes is nil when the donor never confirmed a time.
type ResponseRecord struct {
	RequestID           string   `json:"request_id"`
	Responded           bool     `json:"responded"`
	ResponseTimeMinutes *float64 `json:"response_time_minutes,omitempty"`
}

// Donor represents a registered blood donor.
type Donor struct {
	ID              string           `json:"id"`
	Name            string           `json:"name,omitempty"`
	BloodType       BloodType        `json:"blood_type"`
	Location        GeoPoint         `json:"location"`
	Available       bool             `json:"available"`
	LastDonationAt  *time.Time       `json:"last_donation_at,omitempty"`
	TotalDonations  uint             `json:"total_donations"`
	ResponseHistory []ResponseRecord `json:"response_history,omitempty"`
}

// EligibleAt reports whether the donor may donate at the given instant:
// available and either never donated or past the minimum interval.
func (d Donor) EligibleAt(now time.Time) bool {
	if !d.Available {
		return false
	}
	return d.LastDonationAt == nil || now.Sub(*d.LastDonationAt) >= MinDonationInterval
}

// DaysSinceDonation returns the whole days elapsed since the last donation
// and whether the donor has donated at all.
func (d Donor) DaysSinceDonation(now time.Time) (float64, bool) {
	if d.LastDonationAt == nil {
		return 0, false
	}
	return now.Sub(*d.LastDonationAt).Hours() / 24, true
}
