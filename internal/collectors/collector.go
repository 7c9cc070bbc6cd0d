// Package collectors turns raw domain records into attention candidates.
//
// Each collector reads exactly one domain (plus lookups it needs for
// relevance), applies that domain's relevance rules and emits one candidate
// per relevant record. "No data" is an empty slice, never an error.
package collectors

import (
	"context"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/identity"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Windows used by the relevance rules.
const (
	dueSoonWindow  = 72 * time.Hour
	expiringWindow = 24 * time.Hour
)

// Collector produces candidates for one domain.
type Collector interface {
	Name() string
	Collect(ctx context.Context, userID string, windowStart time.Time) ([]model.Candidate, error)
}

type options struct {
	now func() time.Time
}

// Option configures a collector.
type Option func(*options)

// WithClock sets the time source used for due-date and trigger checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Sources bundles the record sources the standard collector set reads.
type Sources struct {
	Projects      records.ProjectSource
	Deliverables  records.DeliverableSource
	Trades        records.TradeSource
	Suggestions   records.SuggestionSource
	Notifications records.NotificationSource
	Notes         records.NoteSource
	Relations     records.RelationSource
}

// All builds the seven standard collectors in their canonical order.
func All(src Sources, opts ...Option) []Collector {
	return []Collector{
		NewDeliverables(src.Deliverables, src.Projects, opts...),
		NewProjects(src.Projects, opts...),
		NewTrades(src.Trades, opts...),
		NewSuggestions(src.Suggestions, opts...),
		NewNotifications(src.Notifications, opts...),
		NewNotes(src.Notes, src.Relations, opts...),
		NewAlignment(src.Projects, opts...),
	}
}

func newCandidate(st model.SourceType, sourceID string, at model.AttentionType, reason string) model.Candidate {
	return model.Candidate{
		AttentionID:   identity.Derive(string(st), sourceID, string(at), reason),
		SourceType:    st,
		SourceID:      sourceID,
		AttentionType: at,
		ReasonCode:    reason,
		Status:        model.StatusOpen,
	}
}

// prioritySeverity maps a priority tier when no stronger signal applies.
func prioritySeverity(p records.Priority) model.Severity {
	switch p {
	case records.PriorityUrgent, records.PriorityHigh:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func projectStatus(s records.ProjectStatus) model.Status {
	switch s {
	case records.ProjectInProgress:
		return model.StatusInProgress
	case records.ProjectBlocked:
		return model.StatusBlocked
	case records.ProjectOnHold:
		return model.StatusWaiting
	default:
		return model.StatusOpen
	}
}

func isOverdue(due *time.Time, now time.Time) bool {
	return due != nil && due.Before(now)
}

func isDueSoon(due *time.Time, now time.Time) bool {
	return due != nil && !due.Before(now) && due.Sub(now) <= dueSoonWindow
}

// reached reports whether a trigger date is set and not in the future.
func reached(at *time.Time, now time.Time) bool {
	return at != nil && !at.After(now)
}

func latest(ts ...time.Time) time.Time {
	var out time.Time
	for _, t := range ts {
		if t.After(out) {
			out = t
		}
	}
	return out
}
