// Package store provides the in-memory implementation of the persistence and
// geo index interfaces. It backs tests, the CLI subcommands and single-node
// deployments.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harsheyeditor/OneBlood/core/geo"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/core/store"
)

// Memory is a concurrency-safe DonorStore, RequestStore and geo.Index.
type Memory struct {
	mu       sync.RWMutex
	donors   map[string]model.Donor
	requests map[string]*model.BloodRequest
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		donors:   make(map[string]model.Donor),
		requests: make(map[string]*model.BloodRequest),
	}
}

// GetDonor implements store.DonorStore.
func (m *Memory) GetDonor(_ context.Context, id string) (model.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donors[id]
	if !ok {
		return model.Donor{}, store.ErrNotFound
	}
	return d, nil
}

// PutDonor implements store.DonorStore.
func (m *Memory) PutDonor(_ context.Context, d model.Donor) error {
	m.mu.Lock()
	m.donors[d.ID] = d
	m.mu.Unlock()
	return nil
}

// GetRequest implements store.RequestStore. The stored request is copied so
// callers mutate their own instance until PutRequest.
func (m *Memory) GetRequest(_ context.Context, id string) (*model.BloodRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	cp.MatchedDonors = append([]model.MatchedDonor(nil), r.MatchedDonors...)
	cp.AcceptedHospitalIDs = append([]string(nil), r.AcceptedHospitalIDs...)
	return &cp, nil
}

// PutRequest implements store.RequestStore.
func (m *Memory) PutRequest(_ context.Context, r *model.BloodRequest) error {
	cp := *r
	cp.MatchedDonors = append([]model.MatchedDonor(nil), r.MatchedDonors...)
	cp.AcceptedHospitalIDs = append([]string(nil), r.AcceptedHospitalIDs...)
	m.mu.Lock()
	m.requests[cp.ID] = &cp
	m.mu.Unlock()
	return nil
}

// FindExpired implements store.RequestStore.
func (m *Memory) FindExpired(_ context.Context, statuses []model.RequestStatus, now time.Time) ([]*model.BloodRequest, error) {
	wanted := make(map[model.RequestStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.BloodRequest
	for _, r := range m.requests {
		if wanted[r.Status] && now.After(r.ExpiresAt) {
			cp := *r
			cp.MatchedDonors = append([]model.MatchedDonor(nil), r.MatchedDonors...)
			cp.AcceptedHospitalIDs = append([]string(nil), r.AcceptedHospitalIDs...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

// QueryDonors implements geo.Index with a linear haversine scan, ordered by
// distance ascending.
func (m *Memory) QueryDonors(_ context.Context, center model.GeoPoint, radiusKm float64, filter geo.Filter) ([]geo.DonorMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []geo.DonorMatch
	for _, d := range m.donors {
		if filter != nil && !filter(d) {
			continue
		}
		if dist := geo.DistanceKm(center, d.Location); dist <= radiusKm {
			out = append(out, geo.DonorMatch{Donor: d, DistanceKm: dist})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
