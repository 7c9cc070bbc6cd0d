package band_test

import (
	"testing"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/band"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func daysAgo(n float64) time.Time { return now.Add(-time.Duration(n * float64(24*time.Hour))) }

func ids(items []model.DashboardItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func attention(id string, st model.SourceType, at model.AttentionType) model.Item {
	return model.Item{
		AttentionID:   id,
		SourceType:    st,
		SourceID:      id,
		AttentionType: at,
		Severity:      model.SeverityLow,
		CreatedAt:     now,
	}
}

func TestClassifyBands(t *testing.T) {
	Convey("Given the default classifier", t, func() {
		c := band.NewClassifier()

		Convey("When classifying the basic attention cases", func() {
			decision := attention("decide", model.SourceSuggestion, model.AttentionDecisionRequired)
			action := attention("act", model.SourceProject, model.AttentionActionRequired)
			action.DueAt = ptr(now.Add(10 * 24 * time.Hour))
			info := attention("info", model.SourceNotification, model.AttentionInformational)
			blocked := attention("blocked", model.SourceProject, model.AttentionInformational)
			blocked.Status = model.StatusBlocked
			hot := attention("hot", model.SourceNote, model.AttentionInformational)
			hot.Severity = model.SeverityCritical
			hot.DueAt = ptr(now.Add(-time.Hour))
			late := attention("late", model.SourceNote, model.AttentionInformational)
			late.DueAt = ptr(now.Add(-time.Hour))

			board := c.Classify([]model.Item{decision, action, info, blocked, hot, late}, nil, "", now).Board

			Convey("Then decisions without a due date land in NOW", func() {
				So(ids(board.Now), ShouldContain, "decide")
			})

			Convey("Then an action due in ten days lands in SOON", func() {
				So(ids(board.Soon), ShouldContain, "act")
			})

			Convey("Then blocked and overdue critical items are NOW, other overdue items SOON", func() {
				So(ids(board.Now), ShouldContain, "blocked")
				So(ids(board.Now), ShouldContain, "hot")
				So(ids(board.Soon), ShouldContain, "late")
			})

			Convey("Then plain informational items are AWARE", func() {
				So(ids(board.Aware), ShouldResemble, []string{"info"})
			})

			Convey("Then the summary counts every band", func() {
				So(board.Summaries.Now, ShouldEqual, 3)
				So(board.Summaries.Soon, ShouldEqual, 2)
				So(board.Summaries.Aware, ShouldEqual, 1)
				So(board.Summaries.Total, ShouldEqual, 6)
				So(board.Summaries.ByType[model.TypeProject], ShouldEqual, 2)
			})
		})

		Convey("When classifying decision items by kind", func() {
			decisions := []model.DecisionItem{
				{ID: "prop", Kind: model.DecisionItemProposal, CreatedAt: now},
				{ID: "exec", Kind: model.DecisionItemExecution, CreatedAt: now},
				{ID: "sim", Kind: model.DecisionItemSimulation, CreatedAt: now},
				{ID: "thesis", Kind: model.DecisionItemThesisStale, CreatedAt: now},
				{ID: "rating", Kind: model.DecisionItemRatingChange, CreatedAt: now},
			}
			board := c.Classify(nil, decisions, "", now).Board

			Convey("Then each kind maps to its band", func() {
				So(ids(board.Now), ShouldResemble, []string{"prop", "exec"})
				So(ids(board.Soon), ShouldResemble, []string{"sim", "thesis"})
				So(ids(board.Aware), ShouldResemble, []string{"rating"})
				So(board.Now[0].Origin, ShouldEqual, model.OriginDecision)
			})
		})
	})
}

func TestClassifySeverity(t *testing.T) {
	Convey("Given items of different ages", t, func() {
		c := band.NewClassifier()
		decisions := []model.DecisionItem{
			{ID: "d2", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(2.9)},
			{ID: "d3", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(3)},
			{ID: "d7", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(7.5)},
			{ID: "t89", Kind: model.DecisionItemThesisStale, CreatedAt: now, ReferenceAt: daysAgo(89)},
			{ID: "t90", Kind: model.DecisionItemThesisStale, CreatedAt: now, ReferenceAt: daysAgo(90)},
			{ID: "t180", Kind: model.DecisionItemThesisStale, CreatedAt: now, ReferenceAt: daysAgo(180)},
			{ID: "urgent", Kind: model.DecisionItemRatingChange, CreatedAt: now, Urgency: model.SeverityCritical},
			{ID: "high", Kind: model.DecisionItemRatingChange, CreatedAt: now, Urgency: model.SeverityHigh},
		}
		overdue := attention("overdue", model.SourceDeliverable, model.AttentionActionRequired)
		overdue.DueAt = ptr(now.Add(-time.Hour))

		res := c.Classify([]model.Item{overdue}, decisions, "", now)
		bySev := map[string]model.DisplaySeverity{}
		byAge := map[string]int{}
		for _, group := range [][]model.DashboardItem{res.Board.Now, res.Board.Soon, res.Board.Aware} {
			for _, it := range group {
				bySev[it.ID] = it.Severity
				byAge[it.ID] = it.AgeDays
			}
		}

		Convey("Then pending decisions cross MED at 3 days and HIGH at 7", func() {
			So(byAge["d2"], ShouldEqual, 2)
			So(bySev["d2"], ShouldEqual, model.DisplayLow)
			So(bySev["d3"], ShouldEqual, model.DisplayMed)
			So(bySev["d7"], ShouldEqual, model.DisplayHigh)
		})

		Convey("Then stale theses use the reference date against 90 and 180 days", func() {
			So(bySev["t89"], ShouldEqual, model.DisplayLow)
			So(bySev["t90"], ShouldEqual, model.DisplayMed)
			So(bySev["t180"], ShouldEqual, model.DisplayHigh)
		})

		Convey("Then urgency raises the floor", func() {
			So(bySev["urgent"], ShouldEqual, model.DisplayHigh)
			So(bySev["high"], ShouldEqual, model.DisplayMed)
		})

		Convey("Then an overdue deliverable is always HIGH", func() {
			So(byAge["overdue"], ShouldEqual, 0)
			So(bySev["overdue"], ShouldEqual, model.DisplayHigh)
		})
	})

	Convey("Given custom thresholds", t, func() {
		c := band.NewClassifier(band.WithThresholds(map[model.ItemType]band.Threshold{
			model.TypeDecision: {Med: 1, High: 2},
		}))
		res := c.Classify(nil, []model.DecisionItem{{ID: "d", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(2)}}, "", now)

		Convey("Then they replace the defaults for that type", func() {
			So(res.Board.Now[0].Severity, ShouldEqual, model.DisplayHigh)
		})
	})
}

func TestClassifyCrossStream(t *testing.T) {
	Convey("Given attention items overlapping the decision stream", t, func() {
		trade := attention("trade", model.SourceTradeItem, model.AttentionDecisionRequired)
		deliv := attention("deliv", model.SourceDeliverable, model.AttentionActionRequired)
		deliv.Context.ProjectID = "p1"
		otherDeliv := attention("deliv-2", model.SourceDeliverable, model.AttentionActionRequired)
		otherDeliv.Context.ProjectID = "p2"
		shared := attention("proj-9", model.SourceProject, model.AttentionInformational)

		decisions := []model.DecisionItem{
			{ID: "dec-1", Kind: model.DecisionItemProposal, ProjectID: "p1", CreatedAt: now},
			{ID: "dec-2", Kind: model.DecisionItemRatingChange, SourceType: model.SourceProject, SourceID: "proj-9", CreatedAt: now},
		}
		res := band.NewClassifier().Classify([]model.Item{trade, deliv, otherDeliv, shared}, decisions, "", now)

		Convey("Then the decision stream wins every overlap", func() {
			all := append(append(ids(res.Board.Now), ids(res.Board.Soon)...), ids(res.Board.Aware)...)
			So(all, ShouldNotContain, "trade")
			So(all, ShouldNotContain, "deliv")
			So(all, ShouldNotContain, "proj-9")
			So(all, ShouldContain, "deliv-2")
			So(all, ShouldContain, "dec-1")
			So(all, ShouldContain, "dec-2")
		})

		Convey("Then suppressions are counted per reason", func() {
			So(res.Suppressed[band.SuppressedTrade], ShouldEqual, 1)
			So(res.Suppressed[band.SuppressedDeliverable], ShouldEqual, 1)
			So(res.Suppressed[band.SuppressedSourceKey], ShouldEqual, 1)
			So(res.Board.Summaries.Suppressed, ShouldEqual, 3)
		})
	})
}

func TestClassifyPortfolioFilter(t *testing.T) {
	Convey("Given items scoped to different portfolios", t, func() {
		mine := attention("mine", model.SourceProject, model.AttentionInformational)
		mine.Context.PortfolioID = "growth"
		theirs := attention("theirs", model.SourceProject, model.AttentionInformational)
		theirs.Context.PortfolioID = "value"
		unscoped := attention("unscoped", model.SourceProject, model.AttentionInformational)
		decisions := []model.DecisionItem{
			{ID: "dec-value", Kind: model.DecisionItemRatingChange, PortfolioID: "value", CreatedAt: now},
		}

		Convey("When filtering by portfolio", func() {
			board := band.NewClassifier().Classify([]model.Item{mine, theirs, unscoped}, decisions, "growth", now).Board

			Convey("Then other portfolios drop and unscoped items stay", func() {
				So(ids(board.Aware), ShouldResemble, []string{"mine", "unscoped"})
				So(board.PortfolioID, ShouldEqual, "growth")
			})
		})

		Convey("When no filter is given", func() {
			board := band.NewClassifier().Classify([]model.Item{mine, theirs, unscoped}, decisions, "", now).Board

			Convey("Then everything is kept", func() {
				So(board.Summaries.Total, ShouldEqual, 4)
			})
		})
	})
}

func TestClassifyPortfolioFilterWithSuppression(t *testing.T) {
	Convey("Given an unscoped deliverable whose project has a decision in another portfolio", t, func() {
		deliverable := attention("d1", model.SourceDeliverable, model.AttentionActionRequired)
		deliverable.Context.ProjectID = "X"
		trade := attention("t9", model.SourceTradeItem, model.AttentionDecisionRequired)
		trade.Context.PortfolioID = "P2"
		decisions := []model.DecisionItem{
			{ID: "dec-p2", Kind: model.DecisionItemExecution, ProjectID: "X", PortfolioID: "P2", CreatedAt: now},
		}
		items := []model.Item{deliverable, trade}

		Convey("When filtering by a third portfolio", func() {
			res := band.NewClassifier().Classify(items, decisions, "P1", now)

			Convey("Then the deliverable stays and nothing counts as suppressed", func() {
				So(ids(res.Board.Soon), ShouldResemble, []string{"d1"})
				So(res.Board.Now, ShouldBeEmpty)
				So(res.Board.Summaries.Suppressed, ShouldEqual, 0)
				So(res.Suppressed, ShouldBeEmpty)
			})
		})

		Convey("When filtering by the decision's portfolio", func() {
			res := band.NewClassifier().Classify(items, decisions, "P2", now)

			Convey("Then the decision stands in for both attention items", func() {
				So(ids(res.Board.Now), ShouldResemble, []string{"dec-p2"})
				So(res.Board.Soon, ShouldBeEmpty)
				So(res.Suppressed[band.SuppressedDeliverable], ShouldEqual, 1)
				So(res.Suppressed[band.SuppressedTrade], ShouldEqual, 1)
			})
		})
	})
}

func TestClassifySorting(t *testing.T) {
	Convey("Given several items per band", t, func() {
		decisions := []model.DecisionItem{
			{ID: "low-new", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(1)},
			{ID: "med-old", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(5)},
			{ID: "high", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(8)},
			{ID: "med-older", Kind: model.DecisionItemProposal, CreatedAt: daysAgo(6)},
			{ID: "aware-old", Kind: model.DecisionItemRatingChange, CreatedAt: daysAgo(3)},
			{ID: "aware-new", Kind: model.DecisionItemRatingChange, CreatedAt: daysAgo(1)},
		}
		board := band.NewClassifier().Classify(nil, decisions, "", now).Board

		Convey("Then NOW sorts by severity then age", func() {
			So(ids(board.Now), ShouldResemble, []string{"high", "med-older", "med-old", "low-new"})
		})

		Convey("Then AWARE sorts newest first", func() {
			So(ids(board.Aware), ShouldResemble, []string{"aware-new", "aware-old"})
		})

		Convey("Then empty bands are non-nil", func() {
			So(board.Soon, ShouldNotBeNil)
			So(board.Soon, ShouldBeEmpty)
		})
	})
}

func TestInference(t *testing.T) {
	Convey("Given the closed source and decision enumerations", t, func() {
		Convey("Then every source type maps to a concrete display type", func() {
			for _, st := range model.SourceTypes {
				So(band.InferAttentionType(st, ""), ShouldNotEqual, model.TypeOther)
			}
			So(band.InferAttentionType(model.SourceNote, "thesis"), ShouldEqual, model.TypeThesis)
			So(band.InferAttentionType(model.SourceTradeItem, ""), ShouldEqual, model.TypeDecision)
			So(band.InferAttentionType("unknown", ""), ShouldEqual, model.TypeOther)
		})

		Convey("Then every decision kind maps to a concrete display type", func() {
			for _, k := range []model.DecisionItemKind{
				model.DecisionItemProposal, model.DecisionItemExecution, model.DecisionItemSimulation,
				model.DecisionItemThesisStale, model.DecisionItemRatingChange,
			} {
				So(band.InferDecisionType(k), ShouldNotEqual, model.TypeOther)
			}
		})
	})

	Convey("Given reference dates around now", t, func() {
		Convey("Then age is floored and never negative", func() {
			So(band.AgeDays(daysAgo(2.9), now), ShouldEqual, 2)
			So(band.AgeDays(now.Add(48*time.Hour), now), ShouldEqual, 0)
			So(band.AgeDays(time.Time{}, now), ShouldEqual, 0)
		})
	})
}
