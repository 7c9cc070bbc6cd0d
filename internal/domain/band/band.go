// Package band classifies attention items and decision items into display
// bands with an inferred type, severity, context chips and actions.
package band

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
)

const day = 24 * time.Hour

// Threshold holds the age in days at which an item type reaches MED and HIGH.
type Threshold struct {
	Med  int
	High int
}

// DefaultThresholds are the per-type age thresholds.
var DefaultThresholds = map[model.ItemType]Threshold{
	model.TypeDecision:   {Med: 3, High: 7},
	model.TypeSimulation: {Med: 7, High: 14},
	model.TypeThesis:     {Med: 90, High: 180},
	model.TypeProject:    {Med: 14, High: 30},
	model.TypeRating:     {Med: 7, High: 30},
	model.TypeSignal:     {Med: 7, High: 30},
	model.TypeOther:      {Med: 7, High: 30},
}

// Suppression reasons for attention items hidden by the decision stream.
const (
	SuppressedTrade       = "trade_decision"
	SuppressedDeliverable = "deliverable_project"
	SuppressedSourceKey   = "source_key"
)

// Classifier turns the two item streams into a Board.
type Classifier struct {
	thresholds map[model.ItemType]Threshold
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithThresholds overrides the age thresholds for the given types.
func WithThresholds(th map[model.ItemType]Threshold) Option {
	return func(c *Classifier) {
		for t, v := range th {
			c.thresholds[t] = v
		}
	}
}

// NewClassifier creates a classifier with the default thresholds.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{thresholds: make(map[model.ItemType]Threshold, len(DefaultThresholds))}
	for t, v := range DefaultThresholds {
		c.thresholds[t] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is a Board plus per-reason suppression counts.
type Result struct {
	Board      model.Board
	Suppressed map[string]int
}

// Classify merges attention items with the decision stream. The decision
// stream is authoritative: attention trade items are dropped, attention
// deliverables are dropped when a decision item references their project, and
// any other shared source key keeps the decision item. A non-empty
// portfolioID drops items scoped to a different portfolio; unscoped items stay.
func (c *Classifier) Classify(attention []model.Item, decisions []model.DecisionItem, portfolioID string, now time.Time) Result {
	// Only decisions that survive the portfolio filter may suppress attention
	// items; otherwise nothing on the board would stand for them.
	scoped := make([]model.DecisionItem, 0, len(decisions))
	for _, d := range decisions {
		if inPortfolio(d.PortfolioID, portfolioID) {
			scoped = append(scoped, d)
		}
	}
	decisionProjects := make(map[string]struct{})
	decisionKeys := make(map[string]struct{}, len(scoped))
	for _, d := range scoped {
		if d.ProjectID != "" {
			decisionProjects[d.ProjectID] = struct{}{}
		}
		decisionKeys[d.SourceKey()] = struct{}{}
	}

	suppressed := make(map[string]int)
	items := make([]model.DashboardItem, 0, len(attention)+len(scoped))
	for _, a := range attention {
		if !inPortfolio(a.Context.PortfolioID, portfolioID) {
			continue
		}
		if reason, ok := suppression(a, decisionProjects, decisionKeys); ok {
			suppressed[reason]++
			continue
		}
		items = append(items, c.fromAttention(a, now))
	}
	for _, d := range scoped {
		items = append(items, c.fromDecision(d, now))
	}

	board := model.Board{
		GeneratedAt: now,
		PortfolioID: portfolioID,
		Now:         []model.DashboardItem{},
		Soon:        []model.DashboardItem{},
		Aware:       []model.DashboardItem{},
	}
	for _, it := range items {
		switch it.Band {
		case model.BandNow:
			board.Now = append(board.Now, it)
		case model.BandSoon:
			board.Soon = append(board.Soon, it)
		default:
			board.Aware = append(board.Aware, it)
		}
	}
	sortUrgent(board.Now)
	sortUrgent(board.Soon)
	sort.SliceStable(board.Aware, func(i, j int) bool {
		return board.Aware[i].CreatedAt.After(board.Aware[j].CreatedAt)
	})

	board.Summaries = summarize(board, suppressed)
	return Result{Board: board, Suppressed: suppressed}
}

func suppression(a model.Item, projects, keys map[string]struct{}) (string, bool) {
	if a.SourceType == model.SourceTradeItem {
		return SuppressedTrade, true
	}
	if a.SourceType == model.SourceDeliverable && a.Context.ProjectID != "" {
		if _, ok := projects[a.Context.ProjectID]; ok {
			return SuppressedDeliverable, true
		}
	}
	if _, ok := keys[a.SourceKey()]; ok {
		return SuppressedSourceKey, true
	}
	return "", false
}

func inPortfolio(itemPortfolio, filter string) bool {
	return filter == "" || itemPortfolio == "" || itemPortfolio == filter
}

// AgeDays returns whole days elapsed since ref, never negative. A zero ref
// has age zero.
func AgeDays(ref, now time.Time) int {
	if ref.IsZero() {
		return 0
	}
	return int(math.Max(0, math.Floor(float64(now.Sub(ref))/float64(day))))
}

// InferAttentionType maps a source type to its display type. The switch is
// exhaustive over model.SourceTypes; OTHER is reachable only for values
// outside the closed set.
func InferAttentionType(st model.SourceType, noteKind string) model.ItemType {
	switch st {
	case model.SourceTradeItem:
		return model.TypeDecision
	case model.SourceDeliverable, model.SourceProject:
		return model.TypeProject
	case model.SourceNote:
		if noteKind == "thesis" {
			return model.TypeThesis
		}
		return model.TypeSignal
	case model.SourceSuggestion, model.SourceNotification:
		return model.TypeSignal
	}
	return model.TypeOther
}

// InferDecisionType maps a decision item kind to its display type.
func InferDecisionType(k model.DecisionItemKind) model.ItemType {
	switch k {
	case model.DecisionItemProposal, model.DecisionItemExecution:
		return model.TypeDecision
	case model.DecisionItemSimulation:
		return model.TypeSimulation
	case model.DecisionItemThesisStale:
		return model.TypeThesis
	case model.DecisionItemRatingChange:
		return model.TypeRating
	}
	return model.TypeOther
}

func attentionBand(a model.Item, now time.Time) model.Band {
	overdue := a.IsOverdue(now)
	switch {
	case a.AttentionType == model.AttentionDecisionRequired,
		a.Status == model.StatusBlocked,
		overdue && a.Severity == model.SeverityCritical:
		return model.BandNow
	case a.AttentionType == model.AttentionActionRequired, overdue:
		return model.BandSoon
	default:
		return model.BandAware
	}
}

func decisionBand(k model.DecisionItemKind) model.Band {
	switch k {
	case model.DecisionItemProposal, model.DecisionItemExecution:
		return model.BandNow
	case model.DecisionItemSimulation, model.DecisionItemThesisStale:
		return model.BandSoon
	default:
		return model.BandAware
	}
}

func (c *Classifier) severity(t model.ItemType, age int, urgency model.Severity) model.DisplaySeverity {
	th, ok := c.thresholds[t]
	if !ok {
		th = c.thresholds[model.TypeOther]
	}
	sev := model.DisplayLow
	switch {
	case age >= th.High:
		sev = model.DisplayHigh
	case age >= th.Med:
		sev = model.DisplayMed
	}
	switch urgency {
	case model.SeverityCritical:
		sev = model.DisplayHigh
	case model.SeverityHigh:
		if sev.Rank() < model.DisplayMed.Rank() {
			sev = model.DisplayMed
		}
	}
	return sev
}

func (c *Classifier) fromAttention(a model.Item, now time.Time) model.DashboardItem {
	typ := InferAttentionType(a.SourceType, a.Context.NoteKind)
	ref := a.CreatedAt
	if typ == model.TypeThesis && !a.UpdatedAt.IsZero() {
		ref = a.UpdatedAt
	}
	age := AgeDays(ref, now)

	sev := c.severity(typ, age, a.Severity)
	overdue := a.IsOverdue(now)
	if overdue && (a.SourceType == model.SourceDeliverable || a.SourceType == model.SourceProject) {
		sev = model.DisplayHigh
	}

	var chips []string
	chips = appendChip(chips, a.Context.AssetSymbol)
	chips = appendChip(chips, a.Context.ProjectName)
	if a.Context.PortfolioName != "" {
		chips = appendChip(chips, a.Context.PortfolioName)
	}
	if overdue {
		chips = append(chips, fmt.Sprintf("Overdue %dd", AgeDays(*a.DueAt, now)))
	}
	if a.Status == model.StatusBlocked {
		chips = append(chips, "Blocked")
	}

	primary, secondary := attentionActions(a.SourceType, typ)
	return model.DashboardItem{
		ID:               a.AttentionID,
		SourceKey:        a.SourceKey(),
		Origin:           model.OriginAttention,
		Band:             attentionBand(a, now),
		Severity:         sev,
		Type:             typ,
		Title:            a.Title,
		Subtitle:         a.ReasonText,
		AgeDays:          age,
		CreatedAt:        a.CreatedAt,
		ContextChips:     chips,
		PrimaryAction:    primary,
		SecondaryActions: secondary,
		Context:          a.Context,
	}
}

func (c *Classifier) fromDecision(d model.DecisionItem, now time.Time) model.DashboardItem {
	typ := InferDecisionType(d.Kind)
	ref := d.CreatedAt
	if !d.ReferenceAt.IsZero() {
		ref = d.ReferenceAt
	}
	age := AgeDays(ref, now)

	var chips []string
	chips = appendChip(chips, d.AssetSymbol)
	if d.DueAt != nil && d.DueAt.Before(now) {
		chips = append(chips, fmt.Sprintf("Overdue %dd", AgeDays(*d.DueAt, now)))
	}

	primary, secondary := decisionActions(d.Kind)
	return model.DashboardItem{
		ID:               d.ID,
		SourceKey:        d.SourceKey(),
		Origin:           model.OriginDecision,
		Band:             decisionBand(d.Kind),
		Severity:         c.severity(typ, age, d.Urgency),
		Type:             typ,
		Title:            d.Title,
		Subtitle:         d.Subtitle,
		AgeDays:          age,
		CreatedAt:        d.CreatedAt,
		ContextChips:     chips,
		PrimaryAction:    primary,
		SecondaryActions: secondary,
		Context: model.Context{
			AssetID:     d.AssetID,
			AssetSymbol: d.AssetSymbol,
			ProjectID:   d.ProjectID,
			PortfolioID: d.PortfolioID,
		},
	}
}

func appendChip(chips []string, v string) []string {
	if v == "" {
		return chips
	}
	return append(chips, v)
}

func sortUrgent(items []model.DashboardItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if ri, rj := items[i].Severity.Rank(), items[j].Severity.Rank(); ri != rj {
			return ri > rj
		}
		return items[i].AgeDays > items[j].AgeDays
	})
}

func summarize(b model.Board, suppressed map[string]int) model.Summary {
	s := model.Summary{
		Now:        len(b.Now),
		Soon:       len(b.Soon),
		Aware:      len(b.Aware),
		BySeverity: map[model.DisplaySeverity]int{},
		ByType:     map[model.ItemType]int{},
	}
	s.Total = s.Now + s.Soon + s.Aware
	for _, group := range [][]model.DashboardItem{b.Now, b.Soon, b.Aware} {
		for _, it := range group {
			s.BySeverity[it.Severity]++
			s.ByType[it.Type]++
		}
	}
	for _, n := range suppressed {
		s.Suppressed += n
	}
	return s
}
