package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Suggestions surfaces pending suggestions targeted at the user.
type Suggestions struct {
	suggestions records.SuggestionSource
	options
}

// NewSuggestions creates the suggestions collector.
func NewSuggestions(suggestions records.SuggestionSource, opts ...Option) *Suggestions {
	return &Suggestions{suggestions: suggestions, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Suggestions) Name() string { return "suggestions" }

// Collect implements Collector.
func (c *Suggestions) Collect(ctx context.Context, userID string, _ time.Time) ([]model.Candidate, error) {
	suggestions, err := c.suggestions.Suggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}

	out := make([]model.Candidate, 0)
	for _, s := range suggestions {
		if s.TargetUserID != userID || s.Status != records.SuggestionPending {
			continue
		}
		cand := newCandidate(model.SourceSuggestion, s.ID, model.AttentionActionRequired, "suggestion_pending")
		cand.ReasonText = "Suggestion awaiting review"
		cand.Title = fmt.Sprintf("%s: %s", s.AssetSymbol, s.Field)
		cand.Subtitle = s.SuggestedValue
		cand.Preview = s.Notes
		cand.NextAction = "Review suggestion"
		cand.Severity = model.SeverityMedium
		cand.PrimaryOwnerUserID = userID
		cand.CreatedByUserID = s.SuggestedBy
		cand.LastActorUserID = s.SuggestedBy
		cand.CreatedAt = s.CreatedAt
		cand.UpdatedAt = s.CreatedAt
		cand.LastActivityAt = s.CreatedAt
		cand.Context = model.Context{AssetID: s.AssetID, AssetSymbol: s.AssetSymbol}
		out = append(out, cand)
	}
	return out, nil
}
