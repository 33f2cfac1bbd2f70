package model

// Urgency is the priority tier of a blood request. It drives the search
// radius, the candidate cap and the final score multiplier. Unknown values
// behave like UrgencyNormal.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyNormal   Urgency = "normal"
)

// Multiplier returns the factor applied to the weighted match score.
func (u Urgency) Multiplier() float64 {
	switch u {
	case UrgencyCritical:
		return 1.3
	case UrgencyUrgent:
		return 1.1
	default:
		return 1.0
	}
}

// SearchRadiusKm returns the geospatial search radius for candidate retrieval.
func (u Urgency) SearchRadiusKm() float64 {
	switch u {
	case UrgencyCritical:
		return 50
	case UrgencyUrgent:
		return 40
	default:
		return 30
	}
}

// CandidateCap returns the maximum number of candidates retained after ranking.
func (u Urgency) CandidateCap() int {
	switch u {
	case UrgencyCritical:
		return 10
	case UrgencyUrgent:
		return 8
	default:
		return 6
	}
}

// Valid reports whether u is a known urgency tier.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyCritical, UrgencyUrgent, UrgencyNormal:
		return true
	}
	return false
}

// Priority returns the integer precedence used by the assignment pass.
// Higher values are served first.
func (u Urgency) Priority() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyUrgent:
		return 2
	default:
		return 1
	}
}
