package match

// Config defines scoring weights loaded from configuration. A zero Config
// falls back to the default weights.
type Config struct {
	WeightDistance      float64 `json:"weight_distance"`
	WeightCompatibility float64 `json:"weight_compatibility"`
	WeightAvailability  float64 `json:"weight_availability"`
	WeightHistory       float64 `json:"weight_history"`
}

// Weights returns the configured weights, defaulting any field left at zero.
func (c Config) Weights() Weights {
	w := DefaultWeights()
	if c.WeightDistance > 0 {
		w.Distance = c.WeightDistance
	}
	if c.WeightCompatibility > 0 {
		w.Compatibility = c.WeightCompatibility
	}
	if c.WeightAvailability > 0 {
		w.Availability = c.WeightAvailability
	}
	if c.WeightHistory > 0 {
		w.History = c.WeightHistory
	}
	return w
}
