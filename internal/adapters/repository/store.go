// Package repository stores the per-user attention state overlay.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elockenvitz/tesseract/internal/domain/model"
)

// LogEntry is one recorded state decision.
type LogEntry struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	AttentionID string             `json:"attention_id"`
	Kind        model.DecisionKind `json:"kind"`
	Until       *time.Time         `json:"until,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	Note        string             `json:"note,omitempty"`
	At          time.Time          `json:"at"`
}

// NewLogEntry builds a log row for a decision with a fresh id.
func NewLogEntry(userID, attentionID string, d model.Decision) LogEntry {
	return LogEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		AttentionID: attentionID,
		Kind:        d.Kind,
		Until:       d.Until,
		Reason:      d.Reason,
		Note:        d.Note,
		At:          d.At,
	}
}

// CheckWrite validates the arguments of a decision write.
func CheckWrite(userID, attentionID string, d model.Decision) error {
	if userID == "" {
		return ErrMissingUser
	}
	if attentionID == "" {
		return ErrMissingAttentionID
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validate decision: %w", err)
	}
	return nil
}

// MemoryStateStore keeps user state in process memory.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]map[string]model.UserState
	log    map[string][]LogEntry
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]map[string]model.UserState),
		log:    make(map[string][]LogEntry),
	}
}

// ReadAll returns a copy of every state record for userID.
func (s *MemoryStateStore) ReadAll(_ context.Context, userID string) (map[string]model.UserState, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.UserState, len(s.states[userID]))
	for id, st := range s.states[userID] {
		out[id] = st
	}
	return out, nil
}

// WriteDecision folds d into the user's state for attentionID.
func (s *MemoryStateStore) WriteDecision(ctx context.Context, userID, attentionID string, d model.Decision) error {
	if err := CheckWrite(userID, attentionID, d); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	states, ok := s.states[userID]
	if !ok {
		states = make(map[string]model.UserState)
		s.states[userID] = states
	}
	states[attentionID] = states[attentionID].Apply(attentionID, d)
	s.log[userID] = append(s.log[userID], NewLogEntry(userID, attentionID, d))
	return nil
}

// History returns the user's decisions for attentionID, oldest first. An
// empty attentionID returns every decision of the user.
func (s *MemoryStateStore) History(_ context.Context, userID, attentionID string) ([]LogEntry, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LogEntry, 0)
	for _, e := range s.log[userID] {
		if attentionID == "" || e.AttentionID == attentionID {
			out = append(out, e)
		}
	}
	return out, nil
}
