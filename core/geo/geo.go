// Package geo defines the geospatial index consumed by candidate retrieval.
package geo

import (
	"context"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// DonorMatch is a donor returned by a radius query together with its
// great-circle distance from the query point.
type DonorMatch struct {
	Donor      model.Donor
	DistanceKm float64
}

// Filter restricts a radius query server-side.
type Filter func(model.Donor) bool

// Index answers radius queries over the donor population. Results are ordered
// by distance ascending and unbounded; callers cap them.
type Index interface {
	QueryDonors(ctx context.Context, center model.GeoPoint, radiusKm float64, filter Filter) ([]DonorMatch, error)
}
