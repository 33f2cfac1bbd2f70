package main

import (
	"fmt"
	"testing"

	"github.com/harsheyeditor/OneBlood/core/geo"
	"github.com/harsheyeditor/OneBlood/core/model"
)

func TestBloodTypeDistSumsToOne(t *testing.T) {
	sum := 0.0
	for _, d := range bloodTypeDist {
		sum += d.p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("distribution sums to %f, want ~1.0", sum)
	}
}

func TestRandomBloodTypeIsValid(t *testing.T) {
	for i := 0; i < 200; i++ {
		if bt := randomBloodType(); !bt.Valid() {
			t.Fatalf("generated invalid blood type %q", bt)
		}
	}
}

func TestRandomPointStaysWithinRadius(t *testing.T) {
	center := model.GeoPoint{Lat: 28.6139, Lon: 77.2090}
	const radius = 25.0
	for i := 0; i < 500; i++ {
		p := randomPoint(center, radius)
		if !p.Valid() {
			t.Fatalf("generated invalid point %+v", p)
		}
		// Allow a small margin for the flat-earth displacement approximation.
		if d := geo.DistanceKm(center, p); d > radius*1.02 {
			t.Fatalf("point %+v is %.2fkm from center, want <= %.1f", p, d, radius)
		}
	}
}

func TestGeneratePopulation(t *testing.T) {
	cfg := PopulationConfig{
		Size:     12,
		Center:   model.GeoPoint{Lat: 28.6139, Lon: 77.2090},
		RadiusKm: 10,
	}
	ds := GeneratePopulation(cfg)
	if len(ds) != cfg.Size {
		t.Fatalf("got %d donors, want %d", len(ds), cfg.Size)
	}
	for i, d := range ds {
		want := fmt.Sprintf("don%04d", i+1)
		if d.ID != want {
			t.Fatalf("donor %d has id %q, want %q", i, d.ID, want)
		}
	}
}

func TestGeneratePopulationEmpty(t *testing.T) {
	if ds := GeneratePopulation(PopulationConfig{}); ds != nil {
		t.Fatalf("expected nil population, got %d donors", len(ds))
	}
}
