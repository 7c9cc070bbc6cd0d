package model

import "time"

// DecisionItemKind names what the external decision engine produced.
type DecisionItemKind string

// Decision item kinds. The set is closed.
const (
	DecisionItemProposal     DecisionItemKind = "proposal"
	DecisionItemExecution    DecisionItemKind = "execution"
	DecisionItemSimulation   DecisionItemKind = "simulation"
	DecisionItemThesisStale  DecisionItemKind = "thesis_stale"
	DecisionItemRatingChange DecisionItemKind = "rating_change"
)

// DecisionItem is one entry of the independently computed decision stream.
type DecisionItem struct {
	ID          string           `json:"id" yaml:"id"`
	Kind        DecisionItemKind `json:"kind" yaml:"kind"`
	Title       string           `json:"title" yaml:"title"`
	Subtitle    string           `json:"subtitle,omitempty" yaml:"subtitle"`
	UserID      string           `json:"user_id,omitempty" yaml:"user_id"`
	SourceType  SourceType       `json:"source_type,omitempty" yaml:"source_type"`
	SourceID    string           `json:"source_id,omitempty" yaml:"source_id"`
	ProjectID   string           `json:"project_id,omitempty" yaml:"project_id"`
	PortfolioID string           `json:"portfolio_id,omitempty" yaml:"portfolio_id"`
	AssetID     string           `json:"asset_id,omitempty" yaml:"asset_id"`
	AssetSymbol string           `json:"asset_symbol,omitempty" yaml:"asset_symbol"`
	Urgency     Severity         `json:"urgency,omitempty" yaml:"urgency"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
	ReferenceAt time.Time        `json:"reference_at,omitempty" yaml:"reference_at"`
	DueAt       *time.Time       `json:"due_at,omitempty" yaml:"due_at"`
}

// SourceKey returns the item's deduplication key, falling back to its id.
func (d DecisionItem) SourceKey() string {
	if d.SourceType != "" && d.SourceID != "" {
		return SourceKey(d.SourceType, d.SourceID)
	}
	return "decision:" + d.ID
}

// Band is the coarse display urgency bucket.
type Band string

// Bands, most urgent first.
const (
	BandNow   Band = "NOW"
	BandSoon  Band = "SOON"
	BandAware Band = "AWARE"
)

// DisplaySeverity is the classifier's three-level severity.
type DisplaySeverity string

// Display severities.
const (
	DisplayHigh DisplaySeverity = "HIGH"
	DisplayMed  DisplaySeverity = "MED"
	DisplayLow  DisplaySeverity = "LOW"
)

// Rank orders display severities.
func (s DisplaySeverity) Rank() int {
	switch s {
	case DisplayHigh:
		return 3
	case DisplayMed:
		return 2
	case DisplayLow:
		return 1
	}
	return 0
}

// ItemType is the coarse display type inferred for a dashboard item.
type ItemType string

// Item types.
const (
	TypeDecision   ItemType = "DECISION"
	TypeSimulation ItemType = "SIMULATION"
	TypeProject    ItemType = "PROJECT"
	TypeThesis     ItemType = "THESIS"
	TypeRating     ItemType = "RATING"
	TypeSignal     ItemType = "SIGNAL"
	TypeOther      ItemType = "OTHER"
)

// Origin tells which stream produced a dashboard item.
type Origin string

// Origins.
const (
	OriginAttention Origin = "attention"
	OriginDecision  Origin = "decision"
)

// ActionKind names a UI action callback.
type ActionKind string

// Action kinds.
const (
	ActionOpen        ActionKind = "open"
	ActionReview      ActionKind = "review"
	ActionApprove     ActionKind = "approve"
	ActionReject      ActionKind = "reject"
	ActionDefer       ActionKind = "defer"
	ActionMarkDone    ActionKind = "mark_done"
	ActionSimulate    ActionKind = "simulate"
	ActionUpdate      ActionKind = "update_thesis"
	ActionAcknowledge ActionKind = "acknowledge"
	ActionSnooze      ActionKind = "snooze"
	ActionDismiss     ActionKind = "dismiss"
)

// Action describes a button the rendering layer may offer.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Label string     `json:"label"`
}

// DashboardItem is a display-ready, banded item.
type DashboardItem struct {
	ID               string          `json:"id"`
	SourceKey        string          `json:"source_key"`
	Origin           Origin          `json:"origin"`
	Band             Band            `json:"band"`
	Severity         DisplaySeverity `json:"severity"`
	Type             ItemType        `json:"type"`
	Title            string          `json:"title"`
	Subtitle         string          `json:"subtitle,omitempty"`
	AgeDays          int             `json:"age_days"`
	CreatedAt        time.Time       `json:"created_at"`
	ContextChips     []string        `json:"context_chips,omitempty"`
	PrimaryAction    Action          `json:"primary_action"`
	SecondaryActions []Action        `json:"secondary_actions,omitempty"`
	Context          Context         `json:"context"`
}

// Summary aggregates board counts.
type Summary struct {
	Now        int                     `json:"now"`
	Soon       int                     `json:"soon"`
	Aware      int                     `json:"aware"`
	Total      int                     `json:"total"`
	BySeverity map[DisplaySeverity]int `json:"by_severity"`
	ByType     map[ItemType]int        `json:"by_type"`
	Suppressed int                     `json:"suppressed"`
}

// Board is the classifier output.
type Board struct {
	GeneratedAt time.Time       `json:"generated_at"`
	PortfolioID string          `json:"portfolio_id,omitempty"`
	Now         []DashboardItem `json:"now"`
	Soon        []DashboardItem `json:"soon"`
	Aware       []DashboardItem `json:"aware"`
	Summaries   Summary         `json:"summaries"`
}
