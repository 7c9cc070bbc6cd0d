package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Projects surfaces unresolved projects the user owns or is assigned to.
type Projects struct {
	projects records.ProjectSource
	options
}

// NewProjects creates the projects collector.
func NewProjects(projects records.ProjectSource, opts ...Option) *Projects {
	return &Projects{projects: projects, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Projects) Name() string { return "projects" }

// Collect implements Collector. Blocked, overdue and due-soon projects need
// action; otherwise a project surfaces only if it saw activity in the window.
func (c *Projects) Collect(ctx context.Context, userID string, windowStart time.Time) ([]model.Candidate, error) {
	projects, err := c.projects.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	now := c.now()
	out := make([]model.Candidate, 0)
	for _, p := range projects {
		if p.Status.Resolved() || !p.Involves(userID) {
			continue
		}

		severity := prioritySeverity(p.Priority)
		at := model.AttentionActionRequired
		var reason, text string
		switch {
		case p.Status == records.ProjectBlocked:
			severity = model.SeverityHigh
			reason, text = "project_blocked", "Project is blocked"
		case isOverdue(p.DueAt, now):
			severity = model.SeverityHigh
			reason, text = "project_overdue", "Project is overdue"
		case isDueSoon(p.DueAt, now):
			reason, text = "project_due_soon", "Project due soon"
		case !p.LastActivityAt.Before(windowStart):
			at = model.AttentionInformational
			reason, text = "project_active", "Recent project activity"
		default:
			continue
		}

		cand := newCandidate(model.SourceProject, p.ID, at, reason)
		cand.ReasonText = text
		cand.Title = p.Name
		cand.Preview = p.Description
		cand.Tags = []string{string(p.Priority)}
		cand.NextAction = "Open project"
		cand.Severity = severity
		cand.PrimaryOwnerUserID = p.OwnerID
		cand.ParticipantUserIDs = p.Contributors()
		cand.CreatedByUserID = p.OwnerID
		cand.LastActorUserID = p.LastActorID
		cand.CreatedAt = p.CreatedAt
		cand.UpdatedAt = p.UpdatedAt
		cand.LastActivityAt = latest(p.LastActivityAt, p.UpdatedAt)
		cand.DueAt = p.DueAt
		cand.Status = projectStatus(p.Status)
		cand.BlockerReason = p.BlockedReason
		cand.Context = model.Context{
			AssetID:     p.AssetID,
			ProjectID:   p.ID,
			ProjectName: p.Name,
			PortfolioID: p.PortfolioID,
		}
		out = append(out, cand)
	}
	return out, nil
}
