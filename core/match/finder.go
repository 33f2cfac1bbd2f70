package match

import (
	"context"
	"sort"
	"time"

	"github.com/harsheyeditor/OneBlood/core/geo"
	"github.com/harsheyeditor/OneBlood/core/logger"
	"github.com/harsheyeditor/OneBlood/core/model"
)

// Candidate is a donor returned by retrieval, scored against one specific
// request.
type Candidate struct {
	Donor      model.Donor `json:"donor"`
	DistanceKm float64     `json:"distance_km"`
	Score      float64     `json:"score"`
}

// Finder turns a request into a radius query against the geo index, scores
// the results and returns them ranked. The index dependency is injected.
type Finder struct {
	index  geo.Index
	scorer Scorer
	log    logger.Logger
	now    func() time.Time
}

// NewFinder creates a Finder using the default scorer.
func NewFinder(index geo.Index, log logger.Logger) *Finder {
	return &Finder{index: index, scorer: NewScorer(), log: log, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (f *Finder) SetNow(now func() time.Time) { f.now = now }

// SetScorer replaces the default scorer, usually with configured weights.
func (f *Finder) SetScorer(s Scorer) { f.scorer = s }

// FindCandidates returns eligible donors within the urgency-dependent radius,
// ranked by descending score and truncated to the urgency-dependent cap.
// Retrieval is all-or-nothing: on a failed geo query it returns an empty list
// and a *RetrievalError, never partial data.
func (f *Finder) FindCandidates(ctx context.Context, req *model.BloodRequest) ([]Candidate, error) {
	now := f.now()
	radius := req.Urgency.SearchRadiusKm()
	// Eligibility and ABO/Rh compatibility are pushed into the query filter;
	// the scorer only ranks what retrieval already admitted.
	matches, err := f.index.QueryDonors(ctx, req.Location, radius, func(d model.Donor) bool {
		return d.EligibleAt(now) && d.BloodType.CanDonateTo(req.BloodType)
	})
	if err != nil {
		retrievalFailures.Inc()
		f.log.Errorf("geo query failed for request %s: %v", req.ID, err)
		return nil, &RetrievalError{RequestID: req.ID, Err: err}
	}

	cands := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		score := f.scorer.Score(m.Donor, req, now)
		matchScore.WithLabelValues(string(req.Urgency)).Observe(score)
		cands = append(cands, Candidate{Donor: m.Donor, DistanceKm: m.DistanceKm, Score: score})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
	if cap := req.Urgency.CandidateCap(); len(cands) > cap {
		cands = cands[:cap]
	}
	candidatesRetrieved.WithLabelValues(string(req.Urgency)).Observe(float64(len(cands)))
	return cands, nil
}
