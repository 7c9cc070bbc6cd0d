// Package window applies the trailing time window and the per-user state
// overlay to attention candidates.
package window

import (
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
)

// Default window bounds in hours.
const (
	DefaultHours = 24
	MinHours     = 1
)

// Start returns the beginning of a trailing window of hours ending at now.
func Start(now time.Time, hours int) time.Time {
	return now.Add(-time.Duration(hours) * time.Hour)
}

// ClampHours bounds a requested window to [MinHours, maxHours]; a zero or
// negative request yields DefaultHours (itself clamped).
func ClampHours(hours, maxHours int) int {
	if hours <= 0 {
		hours = DefaultHours
	}
	if hours < MinHours {
		hours = MinHours
	}
	if maxHours >= MinHours && hours > maxHours {
		hours = maxHours
	}
	return hours
}

// Stats reports how many candidates each rule removed.
type Stats struct {
	Dismissed int
	Snoozed   int
}

// Apply drops dismissed and currently snoozed candidates and overlays the
// remaining ones with their read state. A missing state record means unread,
// not dismissed and not snoozed. The input slice is not modified.
func Apply(cands []model.Candidate, states map[string]model.UserState, now time.Time) ([]model.Candidate, Stats) {
	var stats Stats
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		st, ok := states[c.AttentionID]
		if !ok {
			out = append(out, c)
			continue
		}
		if st.DismissedAt != nil {
			stats.Dismissed++
			continue
		}
		if st.SnoozedUntil != nil && st.SnoozedUntil.After(now) {
			stats.Snoozed++
			continue
		}
		c.ReadState = st.ReadState
		c.LastViewedAt = st.LastViewedAt
		c.SnoozedUntil = st.SnoozedUntil
		out = append(out, c)
	}
	return out, stats
}

// NextChange returns the earliest instant after now at which Apply or the
// overdue check would treat the same inputs differently: a snooze running
// out or a due date passing. It returns the zero time when nothing is pending.
func NextChange(cands []model.Candidate, states map[string]model.UserState, now time.Time) time.Time {
	var next time.Time
	consider := func(t *time.Time) {
		if t != nil && t.After(now) && (next.IsZero() || t.Before(next)) {
			next = *t
		}
	}
	for _, c := range cands {
		consider(c.DueAt)
		if st, ok := states[c.AttentionID]; ok && st.DismissedAt == nil {
			consider(st.SnoozedUntil)
		}
	}
	return next
}
