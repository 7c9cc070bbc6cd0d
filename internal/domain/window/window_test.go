package window_test

import (
	"testing"
	"time"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestApply(t *testing.T) {
	Convey("Given candidates and a state overlay", t, func() {
		cands := []model.Candidate{
			{AttentionID: "dismissed", SourceID: "1"},
			{AttentionID: "snoozed-future", SourceID: "2"},
			{AttentionID: "snoozed-past", SourceID: "3"},
			{AttentionID: "read", SourceID: "4"},
			{AttentionID: "no-state", SourceID: "5"},
		}
		viewed := now.Add(-time.Hour)
		states := map[string]model.UserState{
			"dismissed":      {AttentionID: "dismissed", DismissedAt: ptr(now.Add(-time.Minute))},
			"snoozed-future": {AttentionID: "snoozed-future", SnoozedUntil: ptr(now.Add(time.Hour))},
			"snoozed-past":   {AttentionID: "snoozed-past", SnoozedUntil: ptr(now.Add(-time.Hour))},
			"read":           {AttentionID: "read", ReadState: model.ReadStateRead, LastViewedAt: &viewed},
		}

		out, stats := window.Apply(cands, states, now)

		Convey("Then dismissed and future-snoozed candidates are dropped", func() {
			ids := make([]string, len(out))
			for i, c := range out {
				ids[i] = c.AttentionID
			}
			So(ids, ShouldResemble, []string{"snoozed-past", "read", "no-state"})
			So(stats, ShouldResemble, window.Stats{Dismissed: 1, Snoozed: 1})
		})

		Convey("Then surviving candidates carry their overlay", func() {
			So(out[0].SnoozedUntil, ShouldNotBeNil)
			So(out[1].ReadState, ShouldEqual, model.ReadStateRead)
			So(out[1].LastViewedAt.Equal(viewed), ShouldBeTrue)
		})

		Convey("Then candidates without state are left untouched", func() {
			So(out[2].ReadState, ShouldEqual, model.ReadState(""))
			So(out[2].SnoozedUntil, ShouldBeNil)
		})

		Convey("Then the input slice is not modified", func() {
			So(cands[3].ReadState, ShouldEqual, model.ReadState(""))
			So(cands, ShouldHaveLength, 5)
		})
	})

	Convey("Given a nil overlay", t, func() {
		out, stats := window.Apply([]model.Candidate{{AttentionID: "a"}}, nil, now)

		Convey("Then every candidate passes", func() {
			So(out, ShouldHaveLength, 1)
			So(stats, ShouldResemble, window.Stats{})
		})
	})
}

func TestWindowBounds(t *testing.T) {
	Convey("Given window helpers", t, func() {
		So(window.Start(now, 24).Equal(now.Add(-24*time.Hour)), ShouldBeTrue)
		So(window.ClampHours(0, 168), ShouldEqual, window.DefaultHours)
		So(window.ClampHours(-3, 168), ShouldEqual, window.DefaultHours)
		So(window.ClampHours(500, 168), ShouldEqual, 168)
		So(window.ClampHours(48, 168), ShouldEqual, 48)
		So(window.ClampHours(48, 0), ShouldEqual, 48)
		So(window.ClampHours(0, 12), ShouldEqual, 12)
	})
}

func TestNextChange(t *testing.T) {
	Convey("Given candidates with pending snoozes and due dates", t, func() {
		cands := []model.Candidate{
			{AttentionID: "snoozed", SourceID: "1"},
			{AttentionID: "due", SourceID: "2", DueAt: ptr(now.Add(3 * time.Hour))},
			{AttentionID: "overdue", SourceID: "3", DueAt: ptr(now.Add(-time.Hour))},
			{AttentionID: "dismissed", SourceID: "4"},
		}
		states := map[string]model.UserState{
			"snoozed":   {AttentionID: "snoozed", SnoozedUntil: ptr(now.Add(2 * time.Hour))},
			"dismissed": {AttentionID: "dismissed", DismissedAt: ptr(now), SnoozedUntil: ptr(now.Add(time.Minute))},
		}

		Convey("When the next change is computed", func() {
			next := window.NextChange(cands, states, now)

			Convey("Then the earliest live snooze wins over later due dates", func() {
				So(next.Equal(now.Add(2*time.Hour)), ShouldBeTrue)
			})
		})

		Convey("When only past instants remain", func() {
			next := window.NextChange(cands[2:3], nil, now)

			Convey("Then nothing is pending", func() {
				So(next.IsZero(), ShouldBeTrue)
			})
		})
	})
}
