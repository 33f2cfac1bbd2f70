package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

var popRng = rand.New(rand.NewSource(time.Now().UnixNano()))

// PopulationConfig holds parameters for bulk donor generation.
type PopulationConfig struct {
	Size     int
	Center   model.GeoPoint
	RadiusKm float64
}

// bloodTypeDist approximates the distribution observed in donor registries.
var bloodTypeDist = []struct {
	bt model.BloodType
	p  float64
}{
	{model.OPositive, 0.374},
	{model.APositive, 0.357},
	{model.BPositive, 0.085},
	{model.ONegative, 0.066},
	{model.ANegative, 0.063},
	{model.ABPositive, 0.034},
	{model.BNegative, 0.015},
	{model.ABNegative, 0.006},
}

func randomBloodType() model.BloodType {
	r := popRng.Float64()
	for _, d := range bloodTypeDist {
		if r < d.p {
			return d.bt
		}
		r -= d.p
	}
	return model.OPositive
}

// randomPoint returns a uniformly distributed point within radiusKm of center.
func randomPoint(center model.GeoPoint, radiusKm float64) model.GeoPoint {
	dist := radiusKm * math.Sqrt(popRng.Float64())
	bearing := popRng.Float64() * 2 * math.Pi
	lat := center.Lat + dist*math.Cos(bearing)/110.574
	lon := center.Lon + dist*math.Sin(bearing)/(111.320*math.Cos(center.Lat*math.Pi/180))
	return model.GeoPoint{Lat: lat, Lon: lon}
}

// GeneratePopulation creates Size donors with IDs don0001..donNNNN scattered
// around the configured center.
func GeneratePopulation(cfg PopulationConfig) []*SimulatedDonor {
	if cfg.Size <= 0 {
		return nil
	}
	ds := make([]*SimulatedDonor, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		id := fmt.Sprintf("don%04d", i+1)
		ds[i] = NewSimulatedDonor(id, randomBloodType(), randomPoint(cfg.Center, cfg.RadiusKm))
	}
	return ds
}
