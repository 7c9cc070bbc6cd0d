package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Notes surfaces the user's own triggered notes and theses plus shared
// teammate notes touching something the user is related to.
type Notes struct {
	notes     records.NoteSource
	relations records.RelationSource
	options
}

// NewNotes creates the notes collector.
func NewNotes(notes records.NoteSource, relations records.RelationSource, opts ...Option) *Notes {
	return &Notes{notes: notes, relations: relations, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Notes) Name() string { return "notes" }

// Collect implements Collector. Own notes that carry no fired trigger and are
// not theses are excluded outright.
func (c *Notes) Collect(ctx context.Context, userID string, windowStart time.Time) ([]model.Candidate, error) {
	notes, err := c.notes.Notes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	rel, err := c.relations.Relations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load relations: %w", err)
	}

	now := c.now()
	out := make([]model.Candidate, 0)
	for _, n := range notes {
		var cand model.Candidate
		var ok bool
		if n.AuthorID == userID {
			cand, ok = ownNote(n, now)
		} else {
			cand, ok = teammateNote(n, rel, windowStart)
		}
		if !ok {
			continue
		}
		cand.Title = n.Title
		cand.Preview = n.Body
		cand.Tags = []string{string(n.Kind)}
		cand.CreatedByUserID = n.AuthorID
		cand.LastActorUserID = n.AuthorID
		cand.CreatedAt = n.CreatedAt
		cand.UpdatedAt = n.UpdatedAt
		cand.LastActivityAt = n.UpdatedAt
		cand.Context = model.Context{
			AssetID:     n.AssetID,
			AssetSymbol: n.AssetSymbol,
			ProjectID:   n.ProjectID,
			PortfolioID: n.PortfolioID,
			NoteKind:    string(n.Kind),
		}
		out = append(out, cand)
	}
	return out, nil
}

func ownNote(n records.Note, now time.Time) (model.Candidate, bool) {
	var (
		reason, text string
		severity     model.Severity
		at           = model.AttentionActionRequired
	)
	switch {
	case n.ExpiresAt != nil && n.ExpiresAt.After(now) && n.ExpiresAt.Sub(now) <= expiringWindow:
		reason, text, severity = "expiring_soon", "Expires within a day", model.SeverityHigh
	case reached(n.AlertAt, now):
		reason, text, severity = "alert_triggered", "Alert date reached", model.SeverityMedium
	case reached(n.RevisitAt, now):
		reason, text, severity = "revisit_due", "Time to revisit", model.SeverityMedium
	case n.Kind == records.NoteKindThesis:
		at = model.AttentionInformational
		reason, text, severity = "own_thesis", "Your thesis", model.SeverityLow
	default:
		return model.Candidate{}, false
	}

	cand := newCandidate(model.SourceNote, n.ID, at, reason)
	cand.ReasonText = text
	cand.Severity = severity
	cand.PrimaryOwnerUserID = n.AuthorID
	cand.NextAction = "Review note"
	if reason == "expiring_soon" {
		cand.DueAt = n.ExpiresAt
	}
	return cand, true
}

func teammateNote(n records.Note, rel records.Relations, windowStart time.Time) (model.Candidate, bool) {
	if n.Private || n.UpdatedAt.Before(windowStart) {
		return model.Candidate{}, false
	}
	if !rel.Touches(n.AssetID, n.ProjectID, n.PortfolioID) {
		return model.Candidate{}, false
	}
	cand := newCandidate(model.SourceNote, n.ID, model.AttentionInformational, "teammate_shared")
	cand.ReasonText = "Shared by a teammate"
	cand.Severity = model.SeverityLow
	cand.PrimaryOwnerUserID = n.AuthorID
	return cand, true
}
