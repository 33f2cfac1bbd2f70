// Package donorkpi derives per-donor daily KPI totals from match log
// history.
package donorkpi

import (
	"github.com/harsheyeditor/OneBlood/core/kpi"
	"github.com/harsheyeditor/OneBlood/core/matchlog"
	"github.com/harsheyeditor/OneBlood/core/model"
)

// Backfill processes historical match records and populates the store.
func Backfill(store kpi.Store, history []matchlog.Record) error {
	for _, h := range history {
		day := kpi.Day(h.Timestamp)
		for _, id := range h.DonorsNotified {
			if err := store.Add(kpi.Record{DonorID: id, Date: day, Notified: 1}); err != nil {
				return err
			}
		}
		for _, md := range h.Request.MatchedDonors {
			if md.Response != model.ReplyAccepted {
				continue
			}
			if err := store.Add(kpi.Record{DonorID: md.DonorID, Date: day, Accepted: 1}); err != nil {
				return err
			}
		}
	}
	return nil
}
