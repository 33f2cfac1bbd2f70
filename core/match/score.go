// Package match implements the donor scoring engine, geospatial candidate
// retrieval and the greedy assignment pass.
package match

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/harsheyeditor/OneBlood/core/geo"
	"github.com/harsheyeditor/OneBlood/core/model"
)

// Weights balances the four scoring components. They are expected to sum
// to 1 so the weighted total stays on the 0-100 scale before the urgency
// multiplier is applied.
type Weights struct {
	Distance      float64
	Compatibility float64
	Availability  float64
	History       float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Distance:      0.4,
		Compatibility: 0.3,
		Availability:  0.2,
		History:       0.1,
	}
}

// Scorer computes match scores for (donor, request) pairs. It is pure: no
// I/O, and deterministic for a given "now".
type Scorer struct {
	Weights Weights
}

// NewScorer returns a scorer with the default weights.
func NewScorer() Scorer {
	return Scorer{Weights: DefaultWeights()}
}

// Score returns the 0-100 match score of a donor against a request at the
// given instant. The weighted component sum is scaled by the request urgency
// and clamped to [0,100].
func (s Scorer) Score(d model.Donor, r *model.BloodRequest, now time.Time) float64 {
	total := DistanceScore(geo.DistanceKm(d.Location, r.Location))*s.Weights.Distance +
		CompatibilityScore(d.BloodType, r.BloodType)*s.Weights.Compatibility +
		AvailabilityScore(d, now)*s.Weights.Availability +
		HistoryScore(d.ResponseHistory)*s.Weights.History
	return clamp(total*r.Urgency.Multiplier(), 0, 100)
}

// DistanceScore buckets a great-circle distance in km into a 0-100 score.
func DistanceScore(km float64) float64 {
	switch {
	case km <= 5:
		return 100
	case km <= 10:
		return 90
	case km <= 20:
		return 70
	case km <= 30:
		return 50
	case km <= 40:
		return 30
	default:
		return 10
	}
}

// CompatibilityScore rates the donor blood type against the requested type.
// An exact match scores 100. Otherwise compatible types score by donor
// universality, and incompatible or unknown types score 0. A zero here does
// not hard-reject by itself; retrieval is what actually filters.
func CompatibilityScore(donor, requested model.BloodType) float64 {
	if donor == requested && donor.Valid() {
		return 100
	}
	if !donor.CanDonateTo(requested) {
		return 0
	}
	switch donor {
	case model.ONegative:
		return 95
	case model.OPositive:
		return 90
	default:
		return 85
	}
}

// AvailabilityScore rates how ready the donor is to donate again: a base of
// 50, a recency bonus keyed on days since the last donation, and a
// reliability bonus keyed on lifetime donation count.
func AvailabilityScore(d model.Donor, now time.Time) float64 {
	score := 50.0
	if days, donated := d.DaysSinceDonation(now); !donated {
		score += 30
	} else {
		switch {
		case days >= 90:
			score += 25
		case days >= 60:
			score += 20
		case days >= 56:
			score += 15
		case days >= 30:
			score += 10
		}
	}
	switch {
	case d.TotalDonations >= 10:
		score += 15
	case d.TotalDonations >= 5:
		score += 10
	case d.TotalDonations >= 1:
		score += 5
	}
	return clamp(score, 0, 100)
}

// historyWindow is the number of most recent history entries considered.
const historyWindow = 10

// defaultResponseMinutes stands in for entries without a recorded response
// time when averaging.
const defaultResponseMinutes = 30.0

// HistoryScore rates the donor's past responsiveness over the most recent
// ten entries. Donors without history get a neutral 50.
func HistoryScore(history []model.ResponseRecord) float64 {
	if len(history) == 0 {
		return 50
	}
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	positives := 0
	times := make([]float64, 0, len(recent))
	for _, rec := range recent {
		if rec.Responded {
			positives++
		}
		if rec.ResponseTimeMinutes != nil {
			times = append(times, *rec.ResponseTimeMinutes)
		} else {
			times = append(times, defaultResponseMinutes)
		}
	}
	rate := float64(positives) / historyWindow
	score := rate * 70
	switch mean := stat.Mean(times, nil); {
	case mean <= 5:
		score += 30
	case mean <= 10:
		score += 25
	case mean <= 15:
		score += 20
	case mean <= 20:
		score += 15
	case mean <= 30:
		score += 10
	}
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
