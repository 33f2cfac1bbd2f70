// Package store defines the persistence interfaces consumed by the core.
// The engine only needs point reads, point writes and two filtered queries;
// everything else about storage is an external concern.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// ErrNotFound is returned for unknown donor or request ids.
var ErrNotFound = errors.New("record not found")

// DonorStore persists donor records. Donors are never deleted, only updated.
type DonorStore interface {
	GetDonor(ctx context.Context, id string) (model.Donor, error)
	PutDonor(ctx context.Context, d model.Donor) error
}

// RequestStore persists blood requests.
type RequestStore interface {
	GetRequest(ctx context.Context, id string) (*model.BloodRequest, error)
	PutRequest(ctx context.Context, r *model.BloodRequest) error
	// FindExpired returns requests whose deadline passed while still in one
	// of the given statuses.
	FindExpired(ctx context.Context, statuses []model.RequestStatus, now time.Time) ([]*model.BloodRequest, error)
}
