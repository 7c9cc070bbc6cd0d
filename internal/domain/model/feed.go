package model

import "time"

// Sections partitions pipeline output by attention type.
type Sections struct {
	DecisionRequired []Item `json:"decision_required"`
	ActionRequired   []Item `json:"action_required"`
	Informational    []Item `json:"informational"`
	Alignment        []Item `json:"alignment"`
}

// Bucket returns the section slice for an attention type.
func (s *Sections) Bucket(t AttentionType) *[]Item {
	switch t {
	case AttentionDecisionRequired:
		return &s.DecisionRequired
	case AttentionActionRequired:
		return &s.ActionRequired
	case AttentionInformational:
		return &s.Informational
	case AttentionAlignment:
		return &s.Alignment
	}
	return nil
}

// Flatten returns every item in section order.
func (s Sections) Flatten() []Item {
	out := make([]Item, 0, len(s.DecisionRequired)+len(s.ActionRequired)+len(s.Informational)+len(s.Alignment))
	out = append(out, s.DecisionRequired...)
	out = append(out, s.ActionRequired...)
	out = append(out, s.Informational...)
	out = append(out, s.Alignment...)
	return out
}

// Counts reports per-section sizes and their total.
type Counts struct {
	DecisionRequired int `json:"decision_required"`
	ActionRequired   int `json:"action_required"`
	Informational    int `json:"informational"`
	Alignment        int `json:"alignment"`
	Total            int `json:"total"`
}

// Feed is the result of one aggregation run.
type Feed struct {
	UserID      string    `json:"user_id"`
	GeneratedAt time.Time `json:"generated_at"`
	WindowStart time.Time `json:"window_start"`
	WindowHours int       `json:"window_hours"`
	Sections    Sections  `json:"sections"`
	Counts      Counts    `json:"counts"`
}
