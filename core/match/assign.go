package match

import (
	"sort"
	"sync"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// Assignment pairs one donor with one request within a batch.
type Assignment struct {
	DonorID   string  `json:"donor_id"`
	RequestID string  `json:"request_id"`
	Score     float64 `json:"score"`
}

// BatchRequest couples a pending request with its ranked candidate list.
type BatchRequest struct {
	Request    *model.BloodRequest
	Candidates []Candidate
}

// Allocator resolves donor contention when several requests compete for the
// same pool. It is a greedy, single-pass heuristic: requests are served in
// urgency order and each takes its best unclaimed candidate. This trades
// global optimality for speed and simplicity; a request whose candidates are
// all claimed gets nothing in this pass and stays pending for a later
// trigger. Batches are mutually exclusive so no donor is double-booked
// within one.
type Allocator struct {
	mu sync.Mutex
}

// NewAllocator returns an Allocator.
func NewAllocator() *Allocator { return &Allocator{} }

// Assign produces a conflict-free donor→request assignment for the batch.
// Ties in urgency keep the original batch order (stable sort).
func (a *Allocator) Assign(batch []BatchRequest) []Assignment {
	a.mu.Lock()
	defer a.mu.Unlock()

	ordered := make([]BatchRequest, len(batch))
	copy(ordered, batch)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Request.Urgency.Priority() > ordered[j].Request.Urgency.Priority()
	})

	claimed := make(map[string]bool)
	var out []Assignment
	for _, br := range ordered {
		for _, c := range br.Candidates {
			if claimed[c.Donor.ID] {
				continue
			}
			claimed[c.Donor.ID] = true
			out = append(out, Assignment{DonorID: c.Donor.ID, RequestID: br.Request.ID, Score: c.Score})
			assignmentsTotal.Inc()
			break
		}
	}
	if len(out) < len(batch) {
		unassignedRequests.Add(float64(len(batch) - len(out)))
	}
	return out
}
