package donorkpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harsheyeditor/OneBlood/core/kpi"
	"github.com/harsheyeditor/OneBlood/core/matchlog"
	"github.com/harsheyeditor/OneBlood/core/model"
	infrakpi "github.com/harsheyeditor/OneBlood/infra/kpi"
)

func TestBackfill(t *testing.T) {
	store, err := infrakpi.NewSQLiteStore(filepath.Join(t.TempDir(), "kpi.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	day1 := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	history := []matchlog.Record{
		{
			Timestamp: day1,
			Request: model.BloodRequest{
				ID: "r1",
				MatchedDonors: []model.MatchedDonor{
					{DonorID: "don-1", Response: model.ReplyAccepted},
					{DonorID: "don-2", Response: model.ReplyDeclined},
				},
			},
			DonorsNotified: []string{"don-1", "don-2"},
		},
		{
			Timestamp: day1.Add(2 * time.Hour),
			Request: model.BloodRequest{
				ID:            "r2",
				MatchedDonors: []model.MatchedDonor{{DonorID: "don-1", Response: model.ReplyAccepted}},
			},
			DonorsNotified: []string{"don-1"},
		},
		{
			Timestamp:      day2,
			Request:        model.BloodRequest{ID: "r3"},
			DonorsNotified: []string{"don-1"},
		},
	}
	require.NoError(t, Backfill(store, history))

	recs, err := store.Query("don-1", kpi.Day(day1), kpi.Day(day2))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Day one: notified twice, accepted twice; same-day rows are merged.
	require.Equal(t, kpi.Day(day1), recs[0].Date)
	require.Equal(t, 2, recs[0].Notified)
	require.Equal(t, 2, recs[0].Accepted)

	require.Equal(t, kpi.Day(day2), recs[1].Date)
	require.Equal(t, 1, recs[1].Notified)
	require.Equal(t, 0, recs[1].Accepted)

	// don-2 never accepted.
	recs, err = store.Query("don-2", kpi.Day(day1), kpi.Day(day2))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 1, recs[0].Notified)
	require.Equal(t, 0, recs[0].Accepted)
}

func TestDayTruncation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2026, 3, 1, 2, 0, 0, 0, loc) // 2026-02-28 20:30 UTC
	require.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), kpi.Day(local))
}
