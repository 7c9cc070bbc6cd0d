// Package records defines the raw domain records read by collectors and the
// source interfaces that supply them.
package records

import (
	"context"
	"time"
)

// Priority is a project priority tier.
type Priority string

// Priority tiers.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ProjectStatus is a project lifecycle state.
type ProjectStatus string

// Project statuses.
const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectBlocked    ProjectStatus = "blocked"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

// Resolved reports whether the project needs no further work.
func (s ProjectStatus) Resolved() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

// Project is a unit of team work.
type Project struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	Description    string        `yaml:"description"`
	OwnerID        string        `yaml:"owner_id"`
	AssigneeIDs    []string      `yaml:"assignee_ids"`
	Status         ProjectStatus `yaml:"status"`
	Priority       Priority      `yaml:"priority"`
	BlockedReason  string        `yaml:"blocked_reason"`
	DueAt          *time.Time    `yaml:"due_at"`
	PortfolioID    string        `yaml:"portfolio_id"`
	AssetID        string        `yaml:"asset_id"`
	LastActorID    string        `yaml:"last_actor_id"`
	CreatedAt      time.Time     `yaml:"created_at"`
	UpdatedAt      time.Time     `yaml:"updated_at"`
	LastActivityAt time.Time     `yaml:"last_activity_at"`
}

// Contributors returns the distinct owner and assignee ids, owner first.
func (p Project) Contributors() []string {
	seen := make(map[string]struct{}, len(p.AssigneeIDs)+1)
	var out []string
	for _, id := range append([]string{p.OwnerID}, p.AssigneeIDs...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Involves reports whether userID owns or is assigned to the project.
func (p Project) Involves(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Deliverable is a piece of work inside a project.
type Deliverable struct {
	ID             string     `yaml:"id"`
	ProjectID      string     `yaml:"project_id"`
	Title          string     `yaml:"title"`
	AssigneeID     string     `yaml:"assignee_id"`
	Completed      bool       `yaml:"completed"`
	DueAt          *time.Time `yaml:"due_at"`
	CreatedBy      string     `yaml:"created_by"`
	LastActorID    string     `yaml:"last_actor_id"`
	CreatedAt      time.Time  `yaml:"created_at"`
	UpdatedAt      time.Time  `yaml:"updated_at"`
	LastActivityAt time.Time  `yaml:"last_activity_at"`
}

// TradeStage is a trade-queue lifecycle stage.
type TradeStage string

// Trade stages. Only TradeDeciding awaits a decision.
const (
	TradeIdea      TradeStage = "idea"
	TradeDiscuss   TradeStage = "discussing"
	TradeDeciding  TradeStage = "deciding"
	TradeApproved  TradeStage = "approved"
	TradeRejected  TradeStage = "rejected"
	TradeExecuted  TradeStage = "executed"
	TradeCancelled TradeStage = "cancelled"
)

// Vote is one user's vote on a trade item.
type Vote struct {
	UserID string    `yaml:"user_id"`
	Vote   string    `yaml:"vote"`
	At     time.Time `yaml:"at"`
}

// TradeItem is an entry in the trade queue.
type TradeItem struct {
	ID          string     `yaml:"id"`
	AssetID     string     `yaml:"asset_id"`
	AssetSymbol string     `yaml:"asset_symbol"`
	PortfolioID string     `yaml:"portfolio_id"`
	Action      string     `yaml:"action"`
	Rationale   string     `yaml:"rationale"`
	Stage       TradeStage `yaml:"stage"`
	Urgency     Priority   `yaml:"urgency"`
	CreatedBy   string     `yaml:"created_by"`
	Votes       []Vote     `yaml:"votes"`
	DeferUntil  *time.Time `yaml:"defer_until"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
}

// HasVoted reports whether userID already voted on the item.
func (t TradeItem) HasVoted(userID string) bool {
	for _, v := range t.Votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// Suggestion is a proposed change targeted at one user.
type Suggestion struct {
	ID             string    `yaml:"id"`
	AssetID        string    `yaml:"asset_id"`
	AssetSymbol    string    `yaml:"asset_symbol"`
	Field          string    `yaml:"field"`
	SuggestedValue string    `yaml:"suggested_value"`
	Notes          string    `yaml:"notes"`
	SuggestedBy    string    `yaml:"suggested_by"`
	TargetUserID   string    `yaml:"target_user_id"`
	Status         string    `yaml:"status"`
	CreatedAt      time.Time `yaml:"created_at"`
}

// SuggestionPending is the only actionable suggestion status.
const SuggestionPending = "pending"

// Notification is a per-user message.
type Notification struct {
	ID        string    `yaml:"id"`
	UserID    string    `yaml:"user_id"`
	Type      string    `yaml:"type"`
	Title     string    `yaml:"title"`
	Message   string    `yaml:"message"`
	Read      bool      `yaml:"read"`
	ActorID   string    `yaml:"actor_id"`
	AssetID   string    `yaml:"asset_id"`
	ProjectID string    `yaml:"project_id"`
	CreatedAt time.Time `yaml:"created_at"`
}

// NoteKind classifies notes and ideas.
type NoteKind string

// Note kinds.
const (
	NoteKindNote   NoteKind = "note"
	NoteKindIdea   NoteKind = "idea"
	NoteKindThesis NoteKind = "thesis"
)

// Note is a shared note, idea or thesis.
type Note struct {
	ID          string     `yaml:"id"`
	AuthorID    string     `yaml:"author_id"`
	Kind        NoteKind   `yaml:"kind"`
	Title       string     `yaml:"title"`
	Body        string     `yaml:"body"`
	Private     bool       `yaml:"private"`
	RevisitAt   *time.Time `yaml:"revisit_at"`
	AlertAt     *time.Time `yaml:"alert_at"`
	ExpiresAt   *time.Time `yaml:"expires_at"`
	AssetID     string     `yaml:"asset_id"`
	AssetSymbol string     `yaml:"asset_symbol"`
	ProjectID   string     `yaml:"project_id"`
	PortfolioID string     `yaml:"portfolio_id"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
}

// Relations lists the domain objects a user has a relationship to.
type Relations struct {
	AssetIDs     []string `yaml:"asset_ids"`
	ProjectIDs   []string `yaml:"project_ids"`
	PortfolioIDs []string `yaml:"portfolio_ids"`
}

// Touches reports whether any of the ids is covered by the relations.
func (r Relations) Touches(assetID, projectID, portfolioID string) bool {
	return contains(r.AssetIDs, assetID) || contains(r.ProjectIDs, projectID) || contains(r.PortfolioIDs, portfolioID)
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Source interfaces. Each returns the raw records a collector filters; "no
// data" is an empty slice, never an error.

// ProjectSource lists projects.
type ProjectSource interface {
	Projects(ctx context.Context) ([]Project, error)
}

// DeliverableSource lists deliverables.
type DeliverableSource interface {
	Deliverables(ctx context.Context) ([]Deliverable, error)
}

// TradeSource lists trade-queue items.
type TradeSource interface {
	TradeItems(ctx context.Context) ([]TradeItem, error)
}

// SuggestionSource lists suggestions.
type SuggestionSource interface {
	Suggestions(ctx context.Context) ([]Suggestion, error)
}

// NotificationSource lists a user's notifications.
type NotificationSource interface {
	Notifications(ctx context.Context, userID string) ([]Notification, error)
}

// NoteSource lists notes, ideas and theses.
type NoteSource interface {
	Notes(ctx context.Context) ([]Note, error)
}

// RelationSource reports what a user is related to.
type RelationSource interface {
	Relations(ctx context.Context, userID string) (Relations, error)
}
