package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/harsheyeditor/OneBlood/core/match"
	"github.com/harsheyeditor/OneBlood/infra/logger"
	"github.com/harsheyeditor/OneBlood/infra/store"
)

// RunScenario seeds an in-memory store with the scenario donors, retrieves
// candidates for the scenario request and compares the ranking against the
// expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	mem := store.NewMemory()
	for _, def := range sc.Donors {
		if err := mem.PutDonor(context.Background(), def.ToModel(now)); err != nil {
			t.Fatalf("seed donor %s: %v", def.ID, err)
		}
	}

	finder := match.NewFinder(mem, logger.NopLogger{})
	finder.SetNow(func() time.Time { return now })

	cands, err := finder.FindCandidates(context.Background(), sc.Request.ToModel(now))
	if err != nil {
		t.Fatalf("scenario %s: find candidates: %v", sc.Name, err)
	}

	if len(cands) != sc.Expected.Candidates {
		t.Errorf("scenario %s expected %d candidates, got %d", sc.Name, sc.Expected.Candidates, len(cands))
	}
	if sc.Expected.First != "" {
		if len(cands) == 0 {
			t.Errorf("scenario %s expected first candidate %s, got none", sc.Name, sc.Expected.First)
		} else if cands[0].Donor.ID != sc.Expected.First {
			t.Errorf("scenario %s expected first candidate %s, got %s", sc.Name, sc.Expected.First, cands[0].Donor.ID)
		}
	}
}
