package main

import "time"

// Config holds parameters for the simulator.
type Config struct {
	Broker      string
	TopicPrefix string
	Size        int
	CenterLat   float64
	CenterLon   float64
	RadiusKm    float64
	ReplyDelay  time.Duration
	AcceptRate  float64
	IgnoreRate  float64
	Verbose     bool
}
