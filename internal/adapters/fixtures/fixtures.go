// Package fixtures serves domain records from a YAML document. It backs
// every record source, the decision stream and the resolution actions for
// local runs and tests.
package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	service "github.com/elockenvitz/tesseract/internal/app"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Sentinel errors. Each wraps its service counterpart.
var (
	ErrNotFound     = fmt.Errorf("fixtures: %w", service.ErrNotFound)
	ErrNotDeciding  = fmt.Errorf("fixtures: %w", service.ErrNotDeciding)
	ErrInvalidHours = fmt.Errorf("fixtures: %w", service.ErrInvalidHours)
)

// Document is the YAML layout.
type Document struct {
	Projects      []records.Project            `yaml:"projects"`
	Deliverables  []records.Deliverable        `yaml:"deliverables"`
	TradeItems    []records.TradeItem          `yaml:"trade_items"`
	Suggestions   []records.Suggestion         `yaml:"suggestions"`
	Notifications []records.Notification       `yaml:"notifications"`
	Notes         []records.Note               `yaml:"notes"`
	Relations     map[string]records.Relations `yaml:"relations"`
	Decisions     []model.DecisionItem         `yaml:"decisions"`
}

// Store holds a Document in memory and applies resolutions to it.
type Store struct {
	mu  sync.RWMutex
	doc Document
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for votes and deferrals.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New wraps an already decoded document.
func New(doc Document, opts ...Option) *Store {
	s := &Store{doc: doc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse decodes a YAML document. Unknown fields are rejected.
func Parse(data []byte, opts ...Option) (*Store, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return New(doc, opts...), nil
}

// Load reads and decodes the YAML document at path.
func Load(path string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data, opts...)
}

// Projects implements records.ProjectSource.
func (s *Store) Projects(context.Context) ([]records.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.Projects), nil
}

// Deliverables implements records.DeliverableSource.
func (s *Store) Deliverables(context.Context) ([]records.Deliverable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.Deliverables), nil
}

// TradeItems implements records.TradeSource.
func (s *Store) TradeItems(context.Context) ([]records.TradeItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.TradeItem, len(s.doc.TradeItems))
	for i, t := range s.doc.TradeItems {
		t.Votes = slices.Clone(t.Votes)
		out[i] = t
	}
	return out, nil
}

// Suggestions implements records.SuggestionSource.
func (s *Store) Suggestions(context.Context) ([]records.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.Suggestions), nil
}

// Notifications implements records.NotificationSource.
func (s *Store) Notifications(_ context.Context, userID string) ([]records.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.Notification, 0)
	for _, n := range s.doc.Notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

// Notes implements records.NoteSource.
func (s *Store) Notes(context.Context) ([]records.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.Notes), nil
}

// Relations implements records.RelationSource.
func (s *Store) Relations(_ context.Context, userID string) (records.Relations, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Relations[userID], nil
}

// Decisions returns the decision items addressed to userID or to everyone.
func (s *Store) Decisions(_ context.Context, userID string) ([]model.DecisionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DecisionItem, 0)
	for _, d := range s.doc.Decisions {
		if d.UserID == "" || d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

// MarkDone completes a deliverable, or a project when no deliverable matches.
func (s *Store) MarkDone(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for i := range s.doc.Deliverables {
		if s.doc.Deliverables[i].ID == sourceID {
			s.doc.Deliverables[i].Completed = true
			s.doc.Deliverables[i].UpdatedAt = now
			return nil
		}
	}
	for i := range s.doc.Projects {
		if s.doc.Projects[i].ID == sourceID {
			s.doc.Projects[i].Status = records.ProjectCompleted
			s.doc.Projects[i].UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, sourceID)
}

// Approve records an approving vote by userID.
func (s *Store) Approve(_ context.Context, userID, sourceID string) error {
	return s.vote(userID, sourceID, "approve")
}

// Reject records a rejecting vote by userID.
func (s *Store) Reject(_ context.Context, userID, sourceID string) error {
	return s.vote(userID, sourceID, "reject")
}

// Defer hides a trade item from decision collection for hours.
func (s *Store) Defer(_ context.Context, sourceID string, hours int) error {
	if hours <= 0 {
		return ErrInvalidHours
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tradeItem(sourceID)
	if err != nil {
		return err
	}
	until := s.now().Add(time.Duration(hours) * time.Hour)
	t.DeferUntil = &until
	return nil
}

func (s *Store) vote(userID, sourceID, vote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tradeItem(sourceID)
	if err != nil {
		return err
	}
	if t.Stage != records.TradeDeciding {
		return fmt.Errorf("%w: %s is %s", ErrNotDeciding, sourceID, t.Stage)
	}
	now := s.now()
	t.Votes = slices.DeleteFunc(t.Votes, func(v records.Vote) bool { return v.UserID == userID })
	t.Votes = append(t.Votes, records.Vote{UserID: userID, Vote: vote, At: now})
	t.UpdatedAt = now
	return nil
}

// tradeItem returns a pointer into the document; callers hold the write lock.
func (s *Store) tradeItem(id string) (*records.TradeItem, error) {
	for i := range s.doc.TradeItems {
		if s.doc.TradeItems[i].ID == id {
			return &s.doc.TradeItems[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}
