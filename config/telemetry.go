package config

// TelemetryConfig holds settings for the donor heartbeat collector, which
// keeps location and availability fresh between explicit update events.
type TelemetryConfig struct {
	Enabled bool `json:"enabled"`
	// Mode is "push" (donor apps volunteer state), "pull" (the service
	// polls) or "hybrid".
	Mode            string `json:"mode"`
	IntervalSeconds int    `json:"interval_seconds"`
	RequestTopic    string `json:"request_topic"`
	ResponsePrefix  string `json:"response_topic_prefix"`
	StatePrefix     string `json:"state_topic_prefix"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

func (c TelemetryConfig) Interval() int {
	if c.IntervalSeconds <= 0 {
		return 10
	}
	return c.IntervalSeconds
}

func (c TelemetryConfig) Timeout() int {
	if c.TimeoutSeconds <= 0 {
		return 3
	}
	return c.TimeoutSeconds
}
