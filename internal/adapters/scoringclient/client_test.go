package scoringclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/balance/internal/adapters/scoringclient"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func newServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}

func TestClientScore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scorer that answers {66, Good}", t, func() {
		var got scoringclient.PredictRequest
		var method, path string
		srv := newServer(func(w http.ResponseWriter, r *http.Request) {
			method, path = r.Method, r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"score": 66, "label": "Good"}`))
		})
		defer srv.Close()

		c, err := scoringclient.New(srv.URL + "/")
		So(err, ShouldBeNil)

		res, err := c.Score(ctx, model.FeatureVector{5, 8, 0})

		Convey("Then the features are posted in order and the result decoded", func() {
			So(err, ShouldBeNil)
			So(method, ShouldEqual, http.MethodPost)
			So(path, ShouldEqual, "/predict")
			So(got.Features, ShouldResemble, model.FeatureVector{5, 8, 0})
			So(res, ShouldResemble, model.ScoreResult{Score: 66, Label: "Good"})
		})
	})

	Convey("Given a scorer that answers a zero score", t, func() {
		srv := newServer(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"score": 0, "label": "Bad"}`))
		})
		defer srv.Close()
		c, _ := scoringclient.New(srv.URL)

		res, err := c.Score(ctx, model.FeatureVector{0})
		So(err, ShouldBeNil)
		So(res.Score, ShouldEqual, 0)
	})

	Convey("Given failing scorers", t, func() {
		cases := []struct {
			name    string
			handler http.HandlerFunc
			want    error
		}{
			{"non-2xx", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			}, scoring.ErrRejected},
			{"missing label", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"score": 50}`))
			}, scoring.ErrMalformedResponse},
			{"missing score", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"label": "Good"}`))
			}, scoring.ErrMalformedResponse},
			{"bad json", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			}, scoring.ErrMalformedResponse},
		}
		for _, tc := range cases {
			Convey("When the scorer fails with "+tc.name, func() {
				srv := newServer(tc.handler)
				defer srv.Close()
				c, _ := scoringclient.New(srv.URL)

				_, err := c.Score(ctx, model.FeatureVector{1})
				So(errors.Is(err, tc.want), ShouldBeTrue)
			})
		}
	})

	Convey("Given an unreachable scorer", t, func() {
		srv := newServer(func(http.ResponseWriter, *http.Request) {})
		url := srv.URL
		srv.Close()
		c, _ := scoringclient.New(url)

		_, err := c.Score(ctx, model.FeatureVector{1})
		So(errors.Is(err, scoring.ErrUnavailable), ShouldBeTrue)
	})

	Convey("Given a scorer slower than the caller's deadline", t, func() {
		release := make(chan struct{})
		srv := newServer(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer srv.Close()
		defer close(release)
		c, _ := scoringclient.New(srv.URL)

		tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := c.Score(tctx, model.FeatureVector{1})
		So(errors.Is(err, scoring.ErrUnavailable), ShouldBeTrue)
	})

	Convey("Given an invalid base url", t, func() {
		_, err := scoringclient.New("not a url")
		So(err, ShouldNotBeNil)
	})
}

func TestClientRateLimit(t *testing.T) {
	Convey("Given a limit of one request with no budget left", t, func() {
		srv := newServer(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"score": 1, "label": "Bad"}`))
		})
		defer srv.Close()
		c, _ := scoringclient.New(srv.URL, scoringclient.WithRateLimit(0.001, 1))

		_, err := c.Score(context.Background(), model.FeatureVector{1})
		So(err, ShouldBeNil)

		Convey("Then a second call with a short deadline is unavailable", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			_, err := c.Score(ctx, model.FeatureVector{1})
			So(errors.Is(err, scoring.ErrUnavailable), ShouldBeTrue)
		})
	})
}

func TestClientColumns(t *testing.T) {
	Convey("Given a scorer that lists a sentinel column", t, func() {
		var path string
		srv := newServer(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = w.Write([]byte(`{"columns": ["Timestamp", "DAILY_STRESS", "SLEEP_HOURS"]}`))
		})
		defer srv.Close()
		c, _ := scoringclient.New(srv.URL)

		cols, err := c.Columns(context.Background())

		Convey("Then the sentinel is stripped and order kept", func() {
			So(err, ShouldBeNil)
			So(path, ShouldEqual, "/columns")
			So(cols, ShouldResemble, []string{"DAILY_STRESS", "SLEEP_HOURS"})
		})
	})

	Convey("Given a scorer without a columns field", t, func() {
		srv := newServer(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		defer srv.Close()
		c, _ := scoringclient.New(srv.URL)

		_, err := c.Columns(context.Background())
		So(errors.Is(err, scoring.ErrMalformedResponse), ShouldBeTrue)
	})
}
