package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elockenvitz/tesseract/internal/adapters/fixtures"
	"github.com/elockenvitz/tesseract/internal/adapters/http/api"
	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	service "github.com/elockenvitz/tesseract/internal/app"
	"github.com/elockenvitz/tesseract/internal/collectors"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

// mockDependencies records calls and returns the configured results.
type mockDependencies struct {
	err error

	userID      string
	windowHours int
	portfolioID string
	attentionID string
	decision    model.Decision
	action      model.ActionKind
	sourceID    string
	hours       int
}

func (m *mockDependencies) Run(_ context.Context, userID string, windowHours int) (model.Feed, error) {
	m.userID, m.windowHours = userID, windowHours
	if m.err != nil {
		return model.Feed{}, m.err
	}
	return model.Feed{UserID: userID, WindowHours: 24, Counts: model.Counts{Total: 1}}, nil
}

func (m *mockDependencies) Classify(_ context.Context, userID string, windowHours int, portfolioID string) (model.Board, error) {
	m.userID, m.windowHours, m.portfolioID = userID, windowHours, portfolioID
	if m.err != nil {
		return model.Board{}, m.err
	}
	return model.Board{PortfolioID: portfolioID, Now: []model.DashboardItem{{ID: "dec1", Band: model.BandNow}}}, nil
}

func (m *mockDependencies) WriteDecision(_ context.Context, userID, attentionID string, d model.Decision) error {
	m.userID, m.attentionID, m.decision = userID, attentionID, d
	return m.err
}

func (m *mockDependencies) History(_ context.Context, userID, attentionID string) ([]repository.LogEntry, error) {
	m.userID, m.attentionID = userID, attentionID
	if m.err != nil {
		return nil, m.err
	}
	return []repository.LogEntry{{ID: "e1", AttentionID: attentionID, Kind: model.DecisionDismiss}}, nil
}

func (m *mockDependencies) Resolve(_ context.Context, userID string, action model.ActionKind, sourceID string, hours int) error {
	m.userID, m.action, m.sourceID, m.hours = userID, action, sourceID, hours
	return m.err
}

func do(h http.Handler, method, target, user, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if user != "" {
		req.Header.Set(api.UserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServerRoutes(t *testing.T) {
	Convey("Given a server over mock dependencies", t, func() {
		deps := &mockDependencies{}
		h := api.NewServer(deps, api.WithClock(func() time.Time { return now })).Handler()

		Convey("When probing health and metrics", func() {
			health := do(h, http.MethodGet, "/healthz", "", "")
			metricsPage := do(h, http.MethodGet, "/metrics", "", "")

			Convey("Then both answer without a user", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(health.Body.String(), ShouldContainSubstring, `"ok"`)
				So(metricsPage.Code, ShouldEqual, http.StatusOK)
				So(metricsPage.Body.String(), ShouldContainSubstring, "tesseract_")
			})
		})

		Convey("When the user header is missing", func() {
			w := do(h, http.MethodGet, "/v1/attention", "", "")

			Convey("Then the request is unauthorized", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(errorCode(w), ShouldEqual, "missing_user")
				So(deps.userID, ShouldBeEmpty)
			})
		})

		Convey("When fetching the feed", func() {
			w := do(h, http.MethodGet, "/v1/attention?window_hours=48", "bob", "")

			Convey("Then the user and window reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(deps.userID, ShouldEqual, "bob")
				So(deps.windowHours, ShouldEqual, 48)

				var feed model.Feed
				So(json.Unmarshal(w.Body.Bytes(), &feed), ShouldBeNil)
				So(feed.UserID, ShouldEqual, "bob")
			})
		})

		Convey("When the window is not a number", func() {
			w := do(h, http.MethodGet, "/v1/attention?window_hours=soon", "bob", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})

		Convey("When fetching the dashboard for a portfolio", func() {
			w := do(h, http.MethodGet, "/v1/dashboard?portfolio_id=pf1", "bob", "")

			Convey("Then the board is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.portfolioID, ShouldEqual, "pf1")
				var board model.Board
				So(json.Unmarshal(w.Body.Bytes(), &board), ShouldBeNil)
				So(board.Now, ShouldHaveLength, 1)
			})
		})

		Convey("When snoozing by hours", func() {
			w := do(h, http.MethodPost, "/v1/attention/a1/decisions", "bob", `{"kind":"snooze","snooze_hours":4}`)

			Convey("Then the until is resolved against the clock", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.attentionID, ShouldEqual, "a1")
				So(deps.decision.Kind, ShouldEqual, model.DecisionSnooze)
				So(deps.decision.Until.Equal(now.Add(4*time.Hour)), ShouldBeTrue)
				So(deps.decision.At.Equal(now), ShouldBeTrue)
			})
		})

		Convey("When the decision body is malformed", func() {
			unknown := do(h, http.MethodPost, "/v1/attention/a1/decisions", "bob", `{"kind":"dismiss","colour":"red"}`)
			missing := do(h, http.MethodPost, "/v1/attention/a1/decisions", "bob", `{}`)

			Convey("Then both are bad requests", func() {
				So(unknown.Code, ShouldEqual, http.StatusBadRequest)
				So(missing.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.attentionID, ShouldBeEmpty)
			})
		})

		Convey("When reading an item's history", func() {
			w := do(h, http.MethodGet, "/v1/attention/a1/decisions", "bob", "")

			Convey("Then the entries are wrapped", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"entries"`)
				So(w.Body.String(), ShouldContainSubstring, `"e1"`)
			})
		})

		Convey("When deferring a trade", func() {
			w := do(h, http.MethodPost, "/v1/resolutions/defer", "bob", `{"source_id":"t1","hours":12}`)

			Convey("Then the action reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.action, ShouldEqual, model.ActionDefer)
				So(deps.sourceID, ShouldEqual, "t1")
				So(deps.hours, ShouldEqual, 12)
			})
		})

		Convey("When a resolution is incomplete", func() {
			noSource := do(h, http.MethodPost, "/v1/resolutions/approve", "bob", `{}`)
			noHours := do(h, http.MethodPost, "/v1/resolutions/defer", "bob", `{"source_id":"t1"}`)

			Convey("Then it is rejected before the service", func() {
				So(noSource.Code, ShouldEqual, http.StatusBadRequest)
				So(noHours.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.action, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrMissingUser, http.StatusUnauthorized, "missing_user"},
		{fmt.Errorf("validate: %w", model.ErrInvalidDecision), http.StatusBadRequest, "bad_request"},
		{fmt.Errorf("%w: snooze", service.ErrUnknownAction), http.StatusBadRequest, "bad_request"},
		{fmt.Errorf("approve t9: %w", service.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("approve t2: %w", service.ErrNotDeciding), http.StatusConflict, "conflict"},
		{fmt.Errorf("defer t1: %w", service.ErrInvalidHours), http.StatusBadRequest, "bad_request"},
		{service.ErrNoResolver, http.StatusNotImplemented, "not_implemented"},
		{fmt.Errorf("%w: %w", service.ErrStateWrite, errors.New("disk full")), http.StatusInternalServerError, "state_write_failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	Convey("Given dependencies that fail", t, func() {
		for _, tc := range cases {
			Convey("When the service returns "+tc.err.Error(), func() {
				deps := &mockDependencies{err: tc.err}
				h := api.NewServer(deps).Handler()
				w := do(h, http.MethodPost, "/v1/resolutions/approve", "bob", `{"source_id":"t1"}`)

				Convey(fmt.Sprintf("Then the response is %d %s", tc.status, tc.code), func() {
					So(w.Code, ShouldEqual, tc.status)
					So(errorCode(w), ShouldEqual, tc.code)
				})
			})
		}
	})
}

func TestServerEndToEnd(t *testing.T) {
	Convey("Given a server over the fixture-backed service", t, func() {
		desk, err := fixtures.Parse([]byte(`
suggestions:
  - id: s1
    field: price_target
    suggested_value: "120"
    target_user_id: bob
    status: pending
    created_at: 2026-03-10T09:00:00Z
`))
		So(err, ShouldBeNil)
		runner := collectors.NewRunner([]collectors.Collector{collectors.NewSuggestions(desk)})
		svc := service.New(runner, repository.NewMemoryStateStore(),
			service.WithClock(func() time.Time { return now }),
			service.WithDecisionSource(desk),
			service.WithResolver(desk),
		)
		h := api.NewServer(svc).Handler()

		Convey("When the item is dismissed over HTTP", func() {
			before := do(h, http.MethodGet, "/v1/attention", "bob", "")
			So(before.Code, ShouldEqual, http.StatusOK)
			var b model.Feed
			So(json.Unmarshal(before.Body.Bytes(), &b), ShouldBeNil)
			So(b.Sections.ActionRequired, ShouldHaveLength, 1)
			id := b.Sections.ActionRequired[0].AttentionID

			dismiss := do(h, http.MethodPost, "/v1/attention/"+id+"/decisions", "bob", `{"kind":"dismiss_with_reason","reason":"duplicate"}`)
			after := do(h, http.MethodGet, "/v1/attention", "bob", "")

			Convey("Then the next feed no longer holds it", func() {
				So(dismiss.Code, ShouldEqual, http.StatusOK)
				var a model.Feed
				So(json.Unmarshal(after.Body.Bytes(), &a), ShouldBeNil)
				So(a.Counts.Total, ShouldEqual, 0)
			})

			Convey("Then the history shows the reason", func() {
				w := do(h, http.MethodGet, "/v1/attention/"+id+"/decisions", "bob", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"duplicate"`)
			})
		})

		Convey("When resolving a record the fixtures do not hold", func() {
			w := do(h, http.MethodPost, "/v1/resolutions/mark_done", "bob", `{"source_id":"missing"}`)

			Convey("Then the adapter's not-found becomes a 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
