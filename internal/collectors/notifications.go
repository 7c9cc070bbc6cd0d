package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/records"
)

// Notifications surfaces the user's unread notifications. Unread is the
// actionability signal, so the window does not apply.
type Notifications struct {
	notifications records.NotificationSource
	options
}

// NewNotifications creates the notifications collector.
func NewNotifications(notifications records.NotificationSource, opts ...Option) *Notifications {
	return &Notifications{notifications: notifications, options: newOptions(opts)}
}

// Name implements Collector.
func (c *Notifications) Name() string { return "notifications" }

// Collect implements Collector.
func (c *Notifications) Collect(ctx context.Context, userID string, _ time.Time) ([]model.Candidate, error) {
	notifications, err := c.notifications.Notifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]model.Candidate, 0)
	for _, n := range notifications {
		if n.UserID != userID || n.Read {
			continue
		}
		cand := newCandidate(model.SourceNotification, n.ID, model.AttentionInformational, "unread_notification")
		cand.ReasonText = "Unread notification"
		cand.Title = n.Title
		cand.Preview = n.Message
		cand.Tags = []string{n.Type}
		cand.Severity = model.SeverityLow
		if n.Type == "mention" || n.Type == "assignment" {
			cand.Severity = model.SeverityMedium
		}
		cand.PrimaryOwnerUserID = userID
		cand.CreatedByUserID = n.ActorID
		cand.LastActorUserID = n.ActorID
		cand.CreatedAt = n.CreatedAt
		cand.UpdatedAt = n.CreatedAt
		cand.LastActivityAt = n.CreatedAt
		cand.Context = model.Context{AssetID: n.AssetID, ProjectID: n.ProjectID}
		out = append(out, cand)
	}
	return out, nil
}
