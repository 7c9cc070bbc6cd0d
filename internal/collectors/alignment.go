package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

const minContributors = 2

// Alignment surfaces recent activity on shared projects so collaborators stay
// in sync.
type Alignment struct {
	projects records.ProjectSource
	options
}

// NewAlignment creates the team alignment collector.
func NewAlignment(projects records.ProjectSource, opts ...Option) *Alignment {
	return &Alignment{projects: projects, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Alignment) Name() string { return "alignment" }

// Collect implements Collector. A project counts only with at least two
// distinct contributors, the user among them, and activity in the window.
func (c *Alignment) Collect(ctx context.Context, userID string, windowStart time.Time) ([]model.Candidate, error) {
	projects, err := c.projects.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]model.Candidate, 0)
	for _, p := range projects {
		if p.Status.Resolved() || p.LastActivityAt.Before(windowStart) {
			continue
		}
		contributors := p.Contributors()
		if len(contributors) < minContributors || !p.Involves(userID) {
			continue
		}

		cand := newCandidate(model.SourceProject, p.ID, model.AttentionAlignment, "team_activity")
		cand.ReasonText = fmt.Sprintf("Activity across %d collaborators", len(contributors))
		cand.Title = p.Name
		cand.NextAction = "Catch up"
		cand.Severity = model.SeverityLow
		cand.PrimaryOwnerUserID = p.OwnerID
		cand.ParticipantUserIDs = contributors
		cand.CreatedByUserID = p.OwnerID
		cand.LastActorUserID = p.LastActorID
		cand.CreatedAt = p.CreatedAt
		cand.UpdatedAt = p.UpdatedAt
		cand.LastActivityAt = p.LastActivityAt
		cand.Status = projectStatus(p.Status)
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
