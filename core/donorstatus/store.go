// Package donorstatus tracks a live snapshot per donor: availability, the
// last request they were contacted for and their last reply. The fabric
// updates it; the operations API lists it.
package donorstatus

import (
	"sort"
	"sync"
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// Status captures the current known state of a donor.
type Status struct {
	DonorID         string           `json:"donor_id"`
	Available       bool             `json:"available"`
	LastRequestID   string           `json:"last_request_id,omitempty"`
	LastContactedAt time.Time        `json:"last_contacted_at,omitempty"`
	LastReply       model.DonorReply `json:"last_reply,omitempty"`
	LastReplyAt     time.Time        `json:"last_reply_at,omitempty"`
}

// Store holds donor status snapshots.
type Store interface {
	Set(Status)
	List() []Status
	RecordContact(donorID, requestID string, t time.Time)
	RecordReply(donorID, requestID string, reply model.DonorReply, t time.Time)
	SetAvailability(donorID string, available bool)
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Set(st Status) {
	s.mu.Lock()
	s.data[st.DonorID] = st
	s.mu.Unlock()
}

// List returns all snapshots ordered by donor id.
func (s *MemoryStore) List() []Status {
	s.mu.RLock()
	out := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		out = append(out, st)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DonorID < out[j].DonorID })
	return out
}

func (s *MemoryStore) RecordContact(donorID, requestID string, t time.Time) {
	s.mu.Lock()
	st := s.data[donorID]
	st.DonorID = donorID
	st.LastRequestID = requestID
	st.LastContactedAt = t
	s.data[donorID] = st
	s.mu.Unlock()
}

func (s *MemoryStore) RecordReply(donorID, requestID string, reply model.DonorReply, t time.Time) {
	s.mu.Lock()
	st := s.data[donorID]
	st.DonorID = donorID
	st.LastRequestID = requestID
	st.LastReply = reply
	st.LastReplyAt = t
	s.data[donorID] = st
	s.mu.Unlock()
}

func (s *MemoryStore) SetAvailability(donorID string, available bool) {
	s.mu.Lock()
	st := s.data[donorID]
	st.DonorID = donorID
	st.Available = available
	s.data[donorID] = st
	s.mu.Unlock()
}
