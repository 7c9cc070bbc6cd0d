package scoring_test

import (
	"testing"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	scoring "github.com/elockenvitz/tesseract/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func keys(entries []model.ScoreEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func sum(entries []model.ScoreEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Value
	}
	return total
}

func TestWeightedScorer_Score(t *testing.T) {
	Convey("Given the default weighted scorer", t, func() {
		scorer := scoring.NewWeightedScorer()

		Convey("When scoring a bare low-severity informational item", func() {
			c := model.Candidate{Severity: model.SeverityLow, AttentionType: model.AttentionInformational}
			score, breakdown := scorer.Score(c, "u1", now)

			Convey("Then only the severity base contributes", func() {
				So(score, ShouldEqual, 10.0)
				So(keys(breakdown), ShouldResemble, []string{scoring.KeySeverity})
			})
		})

		Convey("When scoring an overdue deliverable assigned to the user", func() {
			c := model.Candidate{
				Severity:           model.SeverityHigh,
				AttentionType:      model.AttentionActionRequired,
				DueAt:              ptr(now.Add(-5 * 24 * time.Hour)),
				PrimaryOwnerUserID: "u1",
				Status:             model.StatusInProgress,
			}
			score, breakdown := scorer.Score(c, "u1", now)

			Convey("Then severity, overdue days, ownership and type add up to 100", func() {
				So(score, ShouldEqual, 100.0)
				So(breakdown, ShouldResemble, []model.ScoreEntry{
					{Key: scoring.KeySeverity, Value: 15},
					{Key: scoring.KeyOverdue, Value: 50},
					{Key: scoring.KeyOwner, Value: 15},
					{Key: scoring.KeyActionType, Value: 20},
				})
			})
		})

		Convey("When a partial day is overdue", func() {
			c := model.Candidate{Severity: model.SeverityLow, DueAt: ptr(now.Add(-2 * time.Hour))}
			_, breakdown := scorer.Score(c, "u1", now)

			Convey("Then it counts as one day", func() {
				So(breakdown[1], ShouldResemble, model.ScoreEntry{Key: scoring.KeyOverdue, Value: 10})
			})
		})

		Convey("When the due date is within three days", func() {
			c := model.Candidate{Severity: model.SeverityLow, DueAt: ptr(now.Add(48 * time.Hour))}
			score, breakdown := scorer.Score(c, "u1", now)

			Convey("Then the flat due-soon bonus applies", func() {
				So(score, ShouldEqual, 30.0)
				So(keys(breakdown), ShouldResemble, []string{scoring.KeySeverity, scoring.KeyDueSoon})
			})
		})

		Convey("When the due date is far away", func() {
			c := model.Candidate{Severity: model.SeverityLow, DueAt: ptr(now.Add(10 * 24 * time.Hour))}
			score, _ := scorer.Score(c, "u1", now)

			Convey("Then there is no due contribution", func() {
				So(score, ShouldEqual, 10.0)
			})
		})

		Convey("When the user is both owner and participant", func() {
			c := model.Candidate{
				Severity:           model.SeverityLow,
				PrimaryOwnerUserID: "u1",
				ParticipantUserIDs: []string{"u1", "u2"},
			}
			_, breakdown := scorer.Score(c, "u1", now)

			Convey("Then ownership takes precedence", func() {
				So(keys(breakdown), ShouldResemble, []string{scoring.KeySeverity, scoring.KeyOwner})
			})
		})

		Convey("When the user is only a participant", func() {
			c := model.Candidate{Severity: model.SeverityLow, PrimaryOwnerUserID: "u9", ParticipantUserIDs: []string{"u1"}}
			_, breakdown := scorer.Score(c, "u1", now)

			Convey("Then the assigned bonus applies", func() {
				So(breakdown[1], ShouldResemble, model.ScoreEntry{Key: scoring.KeyAssigned, Value: 10})
			})
		})

		Convey("When scoring a blocked critical decision with recent activity", func() {
			c := model.Candidate{
				Severity:       model.SeverityCritical,
				AttentionType:  model.AttentionDecisionRequired,
				Status:         model.StatusBlocked,
				LastActivityAt: now.Add(-time.Hour),
			}
			score, breakdown := scorer.Score(c, "u1", now)

			Convey("Then every contribution is recorded in order", func() {
				So(keys(breakdown), ShouldResemble, []string{
					scoring.KeySeverity, scoring.KeyDecisionType, scoring.KeyBlocking, scoring.KeyRecentActivity,
				})
				So(score, ShouldEqual, 20.0+30+25+10)
			})
		})

		Convey("When only a blocker reason is present", func() {
			c := model.Candidate{Severity: model.SeverityLow, BlockerReason: "waiting on data"}
			_, breakdown := scorer.Score(c, "u1", now)

			Convey("Then the blocking bonus applies", func() {
				So(keys(breakdown), ShouldContain, scoring.KeyBlocking)
			})
		})

		Convey("When the last activity is stale", func() {
			c := model.Candidate{Severity: model.SeverityLow, LastActivityAt: now.Add(-96 * time.Hour)}
			score, breakdown := scorer.Score(c, "u1", now)

			Convey("Then a penalty is recorded and the breakdown sums to the score", func() {
				So(breakdown[len(breakdown)-1], ShouldResemble, model.ScoreEntry{Key: scoring.KeyStale, Value: -5})
				So(score, ShouldEqual, 5.0)
				So(sum(breakdown), ShouldEqual, score)
			})
		})

		Convey("When activity falls between one and three days", func() {
			c := model.Candidate{Severity: model.SeverityLow, LastActivityAt: now.Add(-48 * time.Hour)}
			_, breakdown := scorer.Score(c, "u1", now)

			Convey("Then recency contributes nothing", func() {
				So(keys(breakdown), ShouldResemble, []string{scoring.KeySeverity})
			})
		})

		Convey("When the severity is unknown", func() {
			score, _ := scorer.Score(model.Candidate{Severity: "bogus"}, "u1", now)

			Convey("Then the low multiplier is used", func() {
				So(score, ShouldEqual, 10.0)
			})
		})
	})

	Convey("Given a scorer whose raw total goes negative", t, func() {
		scorer := scoring.NewWeightedScorer(scoring.WithSeverityMultipliers(map[model.Severity]float64{
			model.SeverityLow: 0.1,
		}))
		c := model.Candidate{Severity: model.SeverityLow, LastActivityAt: now.Add(-100 * time.Hour)}
		score, breakdown := scorer.Score(c, "u1", now)

		Convey("Then the score is clamped to zero while the breakdown keeps raw values", func() {
			So(score, ShouldEqual, 0.0)
			So(sum(breakdown), ShouldBeLessThan, 0)
		})
	})

	Convey("Given a custom due-soon window", t, func() {
		scorer := scoring.NewWeightedScorer(scoring.WithDueSoonWindow(24 * time.Hour))
		c := model.Candidate{Severity: model.SeverityLow, DueAt: ptr(now.Add(48 * time.Hour))}
		score, _ := scorer.Score(c, "u1", now)

		Convey("Then due dates outside it earn nothing", func() {
			So(score, ShouldEqual, 10.0)
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given several candidates", t, func() {
		cands := []model.Candidate{
			{SourceID: "a", Severity: model.SeverityMedium},
			{SourceID: "b", Severity: model.SeverityCritical, AttentionType: model.AttentionDecisionRequired},
		}
		out := scoring.Apply(scoring.NewWeightedScorer(), cands, "u1", now)

		Convey("Then every candidate carries a non-negative score matching its breakdown", func() {
			So(out, ShouldHaveLength, 2)
			for _, c := range out {
				So(c.Score, ShouldBeGreaterThanOrEqualTo, 0)
				So(sum(c.ScoreBreakdown), ShouldEqual, c.Score)
			}
			So(out[0].Score, ShouldEqual, 12.5)
			So(out[1].Score, ShouldEqual, 50.0)
		})
	})
}
