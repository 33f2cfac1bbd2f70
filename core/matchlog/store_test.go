package matchlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harsheyeditor/OneBlood/core/model"
)

func sampleRecord(reqID, donorID string, urgency model.Urgency, ts time.Time) Record {
	return Record{
		Timestamp: ts,
		Request: model.BloodRequest{
			ID:        reqID,
			BloodType: model.OPositive,
			Urgency:   urgency,
			Status:    model.StatusPending,
			CreatedAt: ts,
			ExpiresAt: ts.Add(24 * time.Hour),
		},
		DonorsNotified: []string{donorID},
		Scores:         map[string]float64{donorID: 87.5},
	}
}

// runStoreSuite exercises the LogStore contract shared by every backend.
func runStoreSuite(t *testing.T, s LogStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, sampleRecord("r1", "don-1", model.UrgencyCritical, base)))
	require.NoError(t, s.Append(ctx, sampleRecord("r2", "don-2", model.UrgencyNormal, base.Add(time.Hour))))
	require.NoError(t, s.Append(ctx, sampleRecord("r3", "don-1", model.UrgencyNormal, base.Add(2*time.Hour))))

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 87.5, all[0].Scores[all[0].DonorsNotified[0]])

	byDonor, err := s.Query(ctx, Query{DonorID: "don-1"})
	require.NoError(t, err)
	require.Len(t, byDonor, 2)

	byRequest, err := s.Query(ctx, Query{RequestID: "r2"})
	require.NoError(t, err)
	require.Len(t, byRequest, 1)
	require.Equal(t, "r2", byRequest[0].Request.ID)

	byUrgency, err := s.Query(ctx, Query{Urgency: model.UrgencyCritical})
	require.NoError(t, err)
	require.Len(t, byUrgency, 1)

	window, err := s.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	require.Equal(t, "r2", window[0].Request.ID)

	require.NoError(t, s.Close())
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "matches.log"))
	require.NoError(t, err)
	runStoreSuite(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "matches.log"), 5, 2, 1)
	require.NoError(t, err)
	runStoreSuite(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "matches.db"))
	require.NoError(t, err)
	runStoreSuite(t, s)
}

func TestJSONLStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.log")
	ctx := context.Background()

	s, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, sampleRecord("r1", "don-1", model.UrgencyNormal, time.Now().UTC())))
	require.NoError(t, s.Close())

	reopened, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()
	recs, err := reopened.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
}
