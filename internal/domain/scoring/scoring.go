// Package scoring computes urgency scores for attention candidates.
package scoring

import (
	"math"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
)

// Breakdown keys. They are part of the explainability contract and must not change.
const (
	KeySeverity       = "severity"
	KeyOverdue        = "overdue"
	KeyDueSoon        = "due_soon"
	KeyOwner          = "owner"
	KeyAssigned       = "assigned"
	KeyDecisionType   = "decision_type"
	KeyActionType     = "action_type"
	KeyBlocking       = "blocking"
	KeyRecentActivity = "recent_activity"
	KeyStale          = "stale"
)

// Default weights.
const (
	defaultSeverityBase   = 10.0
	defaultPerDayOverdue  = 10.0
	defaultDueSoonBonus   = 20.0
	defaultDueSoonWindow  = 72 * time.Hour
	defaultOwnerBonus     = 15.0
	defaultAssignedBonus  = 10.0
	defaultDecisionBonus  = 30.0
	defaultActionBonus    = 20.0
	defaultBlockingBonus  = 25.0
	defaultRecentBonus    = 10.0
	defaultRecentWindow   = 24 * time.Hour
	defaultStalePenalty   = -5.0
	defaultStaleThreshold = 72 * time.Hour
	hoursPerDay           = 24.0
)

// Scorer assigns an urgency score and itemized breakdown to a candidate.
type Scorer interface {
	Score(c model.Candidate, userID string, now time.Time) (float64, []model.ScoreEntry)
}

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithSeverityMultipliers overrides the severity multiplier table.
func WithSeverityMultipliers(m map[model.Severity]float64) Option {
	return func(s *WeightedScorer) {
		for sev, mult := range m {
			if mult > 0 {
				s.severityMultipliers[sev] = mult
			}
		}
	}
}

// WithDueSoonWindow sets how close a due date must be to earn the due-soon bonus.
func WithDueSoonWindow(d time.Duration) Option {
	return func(s *WeightedScorer) {
		if d > 0 {
			s.dueSoonWindow = d
		}
	}
}

// WeightedScorer implements the fixed weighted-feature model.
type WeightedScorer struct {
	severityMultipliers map[model.Severity]float64
	severityBase        float64
	perDayOverdue       float64
	dueSoonBonus        float64
	dueSoonWindow       time.Duration
	ownerBonus          float64
	assignedBonus       float64
	decisionBonus       float64
	actionBonus         float64
	blockingBonus       float64
	recentBonus         float64
	recentWindow        time.Duration
	stalePenalty        float64
	staleThreshold      time.Duration
}

// NewWeightedScorer creates a scorer with the default weights.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		severityMultipliers: map[model.Severity]float64{
			model.SeverityLow:      1.0,
			model.SeverityMedium:   1.25,
			model.SeverityHigh:     1.5,
			model.SeverityCritical: 2.0,
		},
		severityBase:   defaultSeverityBase,
		perDayOverdue:  defaultPerDayOverdue,
		dueSoonBonus:   defaultDueSoonBonus,
		dueSoonWindow:  defaultDueSoonWindow,
		ownerBonus:     defaultOwnerBonus,
		assignedBonus:  defaultAssignedBonus,
		decisionBonus:  defaultDecisionBonus,
		actionBonus:    defaultActionBonus,
		blockingBonus:  defaultBlockingBonus,
		recentBonus:    defaultRecentBonus,
		recentWindow:   defaultRecentWindow,
		stalePenalty:   defaultStalePenalty,
		staleThreshold: defaultStaleThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the total and its breakdown. The breakdown holds the raw
// contributions in evaluation order; the total is their sum clamped at zero.
func (s *WeightedScorer) Score(c model.Candidate, userID string, now time.Time) (float64, []model.ScoreEntry) {
	var breakdown []model.ScoreEntry
	add := func(key string, v float64) {
		if v != 0 {
			breakdown = append(breakdown, model.ScoreEntry{Key: key, Value: v})
		}
	}

	mult, ok := s.severityMultipliers[c.Severity]
	if !ok {
		mult = s.severityMultipliers[model.SeverityLow]
	}
	add(KeySeverity, s.severityBase*mult)

	if c.DueAt != nil {
		switch {
		case c.DueAt.Before(now):
			days := math.Ceil(now.Sub(*c.DueAt).Hours() / hoursPerDay)
			add(KeyOverdue, days*s.perDayOverdue)
		case c.DueAt.Sub(now) <= s.dueSoonWindow:
			add(KeyDueSoon, s.dueSoonBonus)
		}
	}

	switch {
	case userID != "" && c.PrimaryOwnerUserID == userID:
		add(KeyOwner, s.ownerBonus)
	case userID != "" && c.IsParticipant(userID):
		add(KeyAssigned, s.assignedBonus)
	}

	switch c.AttentionType {
	case model.AttentionDecisionRequired:
		add(KeyDecisionType, s.decisionBonus)
	case model.AttentionActionRequired:
		add(KeyActionType, s.actionBonus)
	}

	if c.Status == model.StatusBlocked || c.BlockerReason != "" {
		add(KeyBlocking, s.blockingBonus)
	}

	if !c.LastActivityAt.IsZero() {
		age := now.Sub(c.LastActivityAt)
		switch {
		case age <= s.recentWindow:
			add(KeyRecentActivity, s.recentBonus)
		case age > s.staleThreshold:
			add(KeyStale, s.stalePenalty)
		}
	}

	var total float64
	for _, e := range breakdown {
		total += e.Value
	}
	return math.Max(0, total), breakdown
}

// Apply scores every candidate in place and returns the slice.
func Apply(s Scorer, cands []model.Candidate, userID string, now time.Time) []model.Candidate {
	for i := range cands {
		cands[i].Score, cands[i].ScoreBreakdown = s.Score(cands[i], userID, now)
	}
	return cands
}
