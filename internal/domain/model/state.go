package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDecision is returned when a state decision is malformed.
var ErrInvalidDecision = errors.New("invalid decision")

// UserState is the persisted per-user overlay for one attention id.
type UserState struct {
	AttentionID    string     `json:"attention_id"`
	ReadState      ReadState  `json:"read_state,omitempty"`
	LastViewedAt   *time.Time `json:"last_viewed_at,omitempty"`
	SnoozedUntil   *time.Time `json:"snoozed_until,omitempty"`
	DismissedAt    *time.Time `json:"dismissed_at,omitempty"`
	DismissReason  string     `json:"dismiss_reason,omitempty"`
	DismissNote    string     `json:"dismiss_note,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DecisionKind names a user-state write.
type DecisionKind string

// Decision kinds accepted by the state store.
const (
	DecisionAcknowledge       DecisionKind = "acknowledge"
	DecisionSnooze            DecisionKind = "snooze"
	DecisionDismiss           DecisionKind = "dismiss"
	DecisionDismissWithReason DecisionKind = "dismiss_with_reason"
	DecisionMarkRead          DecisionKind = "mark_read"
)

// Decision is a single user-state write.
type Decision struct {
	Kind   DecisionKind `json:"kind"`
	Until  *time.Time   `json:"until,omitempty"`
	Reason string       `json:"reason,omitempty"`
	Note   string       `json:"note,omitempty"`
	At     time.Time    `json:"at"`
}

// Acknowledge builds an acknowledge decision.
func Acknowledge(at time.Time) Decision { return Decision{Kind: DecisionAcknowledge, At: at} }

// Snooze builds a snooze decision.
func Snooze(until, at time.Time) Decision {
	return Decision{Kind: DecisionSnooze, Until: &until, At: at}
}

// Dismiss builds a plain dismiss decision.
func Dismiss(at time.Time) Decision { return Decision{Kind: DecisionDismiss, At: at} }

// DismissWithReason builds a dismiss decision carrying a reason and optional note.
func DismissWithReason(reason, note string, at time.Time) Decision {
	return Decision{Kind: DecisionDismissWithReason, Reason: reason, Note: note, At: at}
}

// MarkRead builds a mark-read decision.
func MarkRead(at time.Time) Decision { return Decision{Kind: DecisionMarkRead, At: at} }

// Validate checks the decision is well-formed.
func (d Decision) Validate() error {
	if d.At.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidDecision)
	}
	switch d.Kind {
	case DecisionAcknowledge, DecisionDismiss, DecisionMarkRead:
		return nil
	case DecisionSnooze:
		if d.Until == nil || !d.Until.After(d.At) {
			return fmt.Errorf("%w: snooze needs a future until", ErrInvalidDecision)
		}
		return nil
	case DecisionDismissWithReason:
		if strings.TrimSpace(d.Reason) == "" {
			return fmt.Errorf("%w: dismiss_with_reason needs a reason", ErrInvalidDecision)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidDecision, d.Kind)
}

// Apply folds a decision into a state record and returns the result.
// Callers validate first.
func (s UserState) Apply(attentionID string, d Decision) UserState {
	s.AttentionID = attentionID
	at := d.At
	switch d.Kind {
	case DecisionAcknowledge:
		s.ReadState = ReadStateAcknowledged
		s.AcknowledgedAt = &at
		s.LastViewedAt = &at
	case DecisionMarkRead:
		if s.ReadState != ReadStateAcknowledged {
			s.ReadState = ReadStateRead
		}
		s.LastViewedAt = &at
	case DecisionSnooze:
		until := *d.Until
		s.SnoozedUntil = &until
	case DecisionDismiss:
		s.DismissedAt = &at
	case DecisionDismissWithReason:
		s.DismissedAt = &at
		s.DismissReason = d.Reason
		s.DismissNote = d.Note
	}
	s.UpdatedAt = at
	return s
}
