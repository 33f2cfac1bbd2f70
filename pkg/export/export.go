// Package export renders match log records for operators and downstream
// reporting tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/harsheyeditor/OneBlood/core/matchlog"
)

// WriteJSON writes the match records to w in JSON format.
func WriteJSON(w io.Writer, records []matchlog.Record) error {
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteCSV writes one row per notified donor with the request context.
func WriteCSV(w io.Writer, records []matchlog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "request_id", "blood_type", "urgency", "donor_id", "score"}); err != nil {
		return err
	}
	for _, r := range records {
		for _, id := range r.DonorsNotified {
			rec := []string{
				r.Timestamp.Format(time.RFC3339),
				r.Request.ID,
				string(r.Request.BloodType),
				string(r.Request.Urgency),
				id,
				strconv.FormatFloat(r.Scores[id], 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
