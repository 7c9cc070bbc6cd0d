package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Deliverables surfaces open deliverables the user is responsible for.
type Deliverables struct {
	deliverables records.DeliverableSource
	projects     records.ProjectSource
	options
}

// NewDeliverables creates the deliverables collector.
func NewDeliverables(deliverables records.DeliverableSource, projects records.ProjectSource, opts ...Option) *Deliverables {
	return &Deliverables{deliverables: deliverables, projects: projects, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Deliverables) Name() string { return "deliverables" }

// Collect implements Collector. A deliverable is relevant when it is assigned
// to the user, unassigned inside a project the user works on, or belongs to a
// project the user owns.
func (c *Deliverables) Collect(ctx context.Context, userID string, _ time.Time) ([]model.Candidate, error) {
	projects, err := c.projects.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	byID := make(map[string]records.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	deliverables, err := c.deliverables.Deliverables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}

	now := c.now()
	out := make([]model.Candidate, 0)
	for _, d := range deliverables {
		if d.Completed {
			continue
		}
		p, hasProject := byID[d.ProjectID]
		if hasProject && p.Status.Resolved() {
			continue
		}
		if !deliverableRelevant(d, p, hasProject, userID) {
			continue
		}
		out = append(out, c.candidate(d, p, now))
	}
	return out, nil
}

func deliverableRelevant(d records.Deliverable, p records.Project, hasProject bool, userID string) bool {
	if d.AssigneeID == userID {
		return true
	}
	if !hasProject {
		return false
	}
	if d.AssigneeID == "" && p.Involves(userID) {
		return true
	}
	return p.OwnerID == userID
}

func (c *Deliverables) candidate(d records.Deliverable, p records.Project, now time.Time) model.Candidate {
	severity := prioritySeverity(p.Priority)
	reason, text := "deliverable_assigned", "Deliverable assigned"
	switch {
	case isOverdue(d.DueAt, now):
		severity = model.SeverityHigh
		reason, text = "deliverable_overdue", "Deliverable is overdue"
	case isDueSoon(d.DueAt, now):
		reason, text = "deliverable_due_soon", "Deliverable due soon"
	}

	cand := newCandidate(model.SourceDeliverable, d.ID, model.AttentionActionRequired, reason)
	cand.ReasonText = text
	cand.Title = d.Title
	cand.Subtitle = p.Name
	cand.NextAction = "Complete deliverable"
	cand.Severity = severity
	cand.PrimaryOwnerUserID = d.AssigneeID
	if cand.PrimaryOwnerUserID == "" {
		cand.PrimaryOwnerUserID = p.OwnerID
	}
	cand.ParticipantUserIDs = p.Contributors()
	cand.CreatedByUserID = d.CreatedBy
	cand.LastActorUserID = d.LastActorID
	cand.CreatedAt = d.CreatedAt
	cand.UpdatedAt = d.UpdatedAt
	cand.LastActivityAt = latest(d.LastActivityAt, d.UpdatedAt)
	cand.DueAt = d.DueAt
	cand.Status = model.StatusInProgress
	if p.Status == records.ProjectBlocked {
		cand.Status = model.StatusBlocked
		cand.BlockerReason = p.BlockedReason
	}
	cand.Context = model.Context{
		AssetID:     p.AssetID,
		ProjectID:   d.ProjectID,
		ProjectName: p.Name,
		PortfolioID: p.PortfolioID,
	}
	return cand
}
