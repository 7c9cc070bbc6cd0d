// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// AttentionType describes what kind of response an item expects.
type AttentionType string

// Attention types. The set is closed.
const (
	AttentionInformational    AttentionType = "informational"
	AttentionActionRequired   AttentionType = "action_required"
	AttentionDecisionRequired AttentionType = "decision_required"
	AttentionAlignment        AttentionType = "alignment"
)

// AttentionTypes lists every attention type in section order.
var AttentionTypes = []AttentionType{
	AttentionDecisionRequired,
	AttentionActionRequired,
	AttentionInformational,
	AttentionAlignment,
}

// Priority ranks attention types for deduplication. Higher wins.
func (t AttentionType) Priority() int {
	switch t {
	case AttentionDecisionRequired:
		return 4
	case AttentionActionRequired:
		return 3
	case AttentionInformational:
		return 2
	case AttentionAlignment:
		return 1
	}
	return 0
}

// Severity is the collector-assigned importance of a candidate.
type Severity string

// Severities, lowest first.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Status is the domain lifecycle label carried by a candidate.
type Status string

// Candidate statuses.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusWaiting    Status = "waiting"
)

// SourceType identifies the domain a candidate was collected from.
type SourceType string

// Source types. Adding one requires extending every exhaustive switch over
// SourceType (see band.InferAttentionType).
const (
	SourceDeliverable  SourceType = "deliverable"
	SourceProject      SourceType = "project"
	SourceTradeItem    SourceType = "trade_queue_item"
	SourceSuggestion   SourceType = "suggestion"
	SourceNotification SourceType = "notification"
	SourceNote         SourceType = "note"
)

// SourceTypes lists every known source type.
var SourceTypes = []SourceType{
	SourceDeliverable,
	SourceProject,
	SourceTradeItem,
	SourceSuggestion,
	SourceNotification,
	SourceNote,
}

// ReadState is the per-user read overlay.
type ReadState string

// Read states. The zero value means no state record exists.
const (
	ReadStateUnread       ReadState = "unread"
	ReadStateRead         ReadState = "read"
	ReadStateAcknowledged ReadState = "acknowledged"
)

// ScoreEntry is one itemized contribution to a score.
type ScoreEntry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Context holds back-references used for downstream linking.
type Context struct {
	AssetID       string `json:"asset_id,omitempty" yaml:"asset_id"`
	AssetSymbol   string `json:"asset_symbol,omitempty" yaml:"asset_symbol"`
	ProjectID     string `json:"project_id,omitempty" yaml:"project_id"`
	ProjectName   string `json:"project_name,omitempty" yaml:"project_name"`
	PortfolioID   string `json:"portfolio_id,omitempty" yaml:"portfolio_id"`
	PortfolioName string `json:"portfolio_name,omitempty" yaml:"portfolio_name"`
	NoteKind      string `json:"note_kind,omitempty" yaml:"note_kind"`
}

// Candidate is one unit of "something needing attention". Collectors build
// candidates; the pipeline scores, filters and overlays them into Items.
type Candidate struct {
	AttentionID   string        `json:"attention_id"`
	SourceType    SourceType    `json:"source_type"`
	SourceID      string        `json:"source_id"`
	AttentionType AttentionType `json:"attention_type"`
	ReasonCode    string        `json:"reason_code"`
	ReasonText    string        `json:"reason_text"`

	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle,omitempty"`
	Preview    string   `json:"preview,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	NextAction string   `json:"next_action,omitempty"`

	Severity Severity `json:"severity"`

	PrimaryOwnerUserID string   `json:"primary_owner_user_id,omitempty"`
	ParticipantUserIDs []string `json:"participant_user_ids,omitempty"`
	CreatedByUserID    string   `json:"created_by_user_id,omitempty"`
	LastActorUserID    string   `json:"last_actor_user_id,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	DueAt          *time.Time `json:"due_at,omitempty"`

	Status        Status `json:"status"`
	BlockerReason string `json:"blocker_reason,omitempty"`

	Score          float64      `json:"score"`
	ScoreBreakdown []ScoreEntry `json:"score_breakdown,omitempty"`

	ReadState    ReadState  `json:"read_state,omitempty"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`

	Context Context `json:"context"`
}

// Item is a candidate that survived the pipeline.
type Item = Candidate

// SourceKey returns the deduplication key source_type:source_id.
func (c Candidate) SourceKey() string {
	return SourceKey(c.SourceType, c.SourceID)
}

// SourceKey formats a deduplication key.
func SourceKey(sourceType SourceType, sourceID string) string {
	return fmt.Sprintf("%s:%s", sourceType, sourceID)
}

// IsOverdue reports whether the candidate has a due date before now.
func (c Candidate) IsOverdue(now time.Time) bool {
	return c.DueAt != nil && c.DueAt.Before(now)
}

// IsParticipant reports whether userID is listed as a participant.
func (c Candidate) IsParticipant(userID string) bool {
	for _, id := range c.ParticipantUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
