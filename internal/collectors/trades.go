package collectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Trades surfaces trade-queue items waiting on the user's vote.
type Trades struct {
	trades records.TradeSource
	options
}

// NewTrades creates the trade decision collector.
func NewTrades(trades records.TradeSource, opts ...Option) *Trades {
	return &Trades{trades: trades, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Trades) Name() string { return "trades" }

// Collect implements Collector. Only items in the deciding stage that the
// user has not voted on and that are not deferred qualify.
func (c *Trades) Collect(ctx context.Context, userID string, _ time.Time) ([]model.Candidate, error) {
	items, err := c.trades.TradeItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trade items: %w", err)
	}

	now := c.now()
	out := make([]model.Candidate, 0)
	for _, t := range items {
		if t.Stage != records.TradeDeciding || t.HasVoted(userID) {
			continue
		}
		if t.DeferUntil != nil && t.DeferUntil.After(now) {
			continue
		}

		cand := newCandidate(model.SourceTradeItem, t.ID, model.AttentionDecisionRequired, "awaiting_decision")
		cand.ReasonText = "Awaiting your decision"
		cand.Title = strings.TrimSpace(strings.ToUpper(t.Action) + " " + t.AssetSymbol)
		cand.Preview = t.Rationale
		cand.NextAction = "Vote"
		cand.Severity = urgencySeverity(t.Urgency)
		cand.PrimaryOwnerUserID = t.CreatedBy
		cand.ParticipantUserIDs = voters(t)
		cand.CreatedByUserID = t.CreatedBy
		cand.LastActorUserID = lastVoter(t)
		cand.CreatedAt = t.CreatedAt
		cand.UpdatedAt = t.UpdatedAt
		cand.LastActivityAt = t.UpdatedAt
		cand.Status = model.StatusWaiting
		cand.Context = model.Context{
			AssetID:     t.AssetID,
			AssetSymbol: t.AssetSymbol,
			PortfolioID: t.PortfolioID,
		}
		out = append(out, cand)
	}
	return out, nil
}

func urgencySeverity(p records.Priority) model.Severity {
	switch p {
	case records.PriorityUrgent:
		return model.SeverityCritical
	case records.PriorityHigh:
		return model.SeverityHigh
	case records.PriorityMedium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func voters(t records.TradeItem) []string {
	if len(t.Votes) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t.Votes))
	for _, v := range t.Votes {
		ids = append(ids, v.UserID)
	}
	return ids
}

func lastVoter(t records.TradeItem) string {
	var id string
	var at time.Time
	for _, v := range t.Votes {
		if !v.At.Before(at) {
			id, at = v.UserID, v.At
		}
	}
	if id == "" {
		return t.CreatedBy
	}
	return id
}
