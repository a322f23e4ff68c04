package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/balance/internal/adapters/repository"
	service "github.com/okian/balance/internal/app"
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/collector"
	"github.com/okian/balance/internal/domain/history"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testCatalog() *catalog.Catalog {
	choices := []catalog.Choice{
		{Label: "low", Value: 2}, {Label: "some", Value: 5},
		{Label: "high", Value: 8}, {Label: "max", Value: 10},
	}
	return catalog.MustNew([]catalog.Question{
		{ID: "q1", Title: "Q1", Choices: choices},
		{ID: "q2", Title: "Q2", Choices: choices},
		{ID: "q3", Title: "Q3", Choices: choices},
	})
}

type fixedScorer struct {
	calls atomic.Int32
	seen  atomic.Value
	fail  atomic.Bool
}

func (f *fixedScorer) Score(_ context.Context, fv model.FeatureVector) (model.ScoreResult, error) {
	f.calls.Add(1)
	f.seen.Store(append(model.FeatureVector(nil), fv...))
	if f.fail.Load() {
		return model.ScoreResult{}, scoring.ErrUnavailable
	}
	return model.ScoreResult{Score: 66, Label: "Good"}, nil
}

type failingStore struct {
	repository.Store
}

func (failingStore) Append(context.Context, model.NewRecord) (model.ResultRecord, error) {
	return model.ResultRecord{}, errors.New("disk full")
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then every operation reports it", func() {
			_, err := svc.StartSession(ctx, "u-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.History(ctx, "u-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service with defaults", t, func() {
		svc := startService()
		defer svc.Stop()

		Convey("Then the built-in catalog and local model are active", func() {
			So(svc.Catalog().Size(), ShouldBeGreaterThan, 0)
			So(svc.Columns(), ShouldResemble, svc.Catalog().IDs())

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["records"], ShouldEqual, 0)
			So(stats["activeSessions"], ShouldEqual, 0)
		})

		Convey("When starting again", func() {
			Convey("Then it is a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})

		Convey("When stopped", func() {
			svc.Stop()

			Convey("Then it can be stopped twice", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_PaginatedSurvey(t *testing.T) {
	Convey("Given a three-question catalog and a scorer returning 66", t, func() {
		scorer := &fixedScorer{}
		svc := startService(service.WithCatalog(testCatalog()), service.WithScorer(scorer))
		defer svc.Stop()
		ctx := context.Background()

		sess, err := svc.StartSession(ctx, "u-1")
		So(err, ShouldBeNil)
		So(sess.State, ShouldEqual, "in_progress")
		So(sess.Question.ID, ShouldEqual, "q1")

		Convey("When q1=5 and q2=8 are answered and q3 is skipped", func() {
			_, err = svc.Answer(ctx, sess.ID, 5)
			So(err, ShouldBeNil)
			_, err = svc.Advance(ctx, sess.ID)
			So(err, ShouldBeNil)
			_, err = svc.Answer(ctx, sess.ID, 8)
			So(err, ShouldBeNil)
			_, err = svc.Advance(ctx, sess.ID)
			So(err, ShouldBeNil)
			done, err := svc.Advance(ctx, sess.ID)
			So(err, ShouldBeNil)

			Convey("Then the scorer receives [5 8 0] and the record is stored", func() {
				So(scorer.calls.Load(), ShouldEqual, 1)
				So(scorer.seen.Load(), ShouldResemble, model.FeatureVector{5, 8, 0})
				So(done.State, ShouldEqual, "complete")
				So(done.Assessment, ShouldNotBeNil)
				So(done.Assessment.Score, ShouldEqual, 66)
				So(done.Assessment.Persisted, ShouldBeTrue)
				So(done.Assessment.Record.Answers, ShouldResemble, model.AnswerSet{"q1": 5, "q2": 8})
			})

			Convey("Then the history shows the record as latest with no comparison", func() {
				view, err := svc.History(ctx, "u-1")
				So(err, ShouldBeNil)
				So(view.Latest, ShouldNotBeNil)
				So(view.Latest.ID, ShouldEqual, done.Assessment.Record.ID)
				So(view.Previous, ShouldBeNil)
				So(view.Comparison, ShouldBeNil)
				So(view.Category, ShouldEqual, history.Good)
				So(view.Trend, ShouldHaveLength, 1)
			})

			Convey("Then a retry is refused", func() {
				_, err := svc.Retry(ctx, sess.ID)
				So(errors.Is(err, collector.ErrAlreadySubmitted), ShouldBeTrue)
			})
		})

		Convey("When a value outside the choices is selected", func() {
			got, err := svc.Answer(ctx, sess.ID, 3)

			Convey("Then it is rejected and nothing is recorded", func() {
				So(errors.Is(err, collector.ErrInvalidChoice), ShouldBeTrue)
				So(got.Answers, ShouldBeEmpty)
			})
		})

		Convey("When stepping back with revisiting disabled", func() {
			_, err := svc.Back(ctx, sess.ID)

			Convey("Then it is refused", func() {
				So(errors.Is(err, collector.ErrRevisitDisabled), ShouldBeTrue)
			})
		})

		Convey("When scoring is unavailable on the last question", func() {
			scorer.fail.Store(true)
			for range 3 {
				_, err = svc.Advance(ctx, sess.ID)
			}

			Convey("Then the session completes with the error and no record", func() {
				So(errors.Is(err, submission.ErrSubmission), ShouldBeTrue)
				got, err := svc.Session(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.Assessment, ShouldBeNil)
				So(got.Error, ShouldNotBeEmpty)

				records, err := svc.Records(ctx, "u-1")
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
			})

			Convey("And a retry after recovery stores the record", func() {
				scorer.fail.Store(false)
				got, err := svc.Retry(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.Assessment.Persisted, ShouldBeTrue)
			})
		})

		Convey("When the session id is unknown", func() {
			_, err := svc.Session(ctx, "nope")

			Convey("Then it is not found", func() {
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service allowing revisits", t, func() {
		svc := startService(service.WithCatalog(testCatalog()), service.WithAllowRevisit(true))
		defer svc.Stop()
		ctx := context.Background()
		sess, err := svc.StartSession(ctx, "u-2")
		So(err, ShouldBeNil)

		Convey("When going forward then back", func() {
			_, err = svc.Advance(ctx, sess.ID)
			So(err, ShouldBeNil)
			got, err := svc.Back(ctx, sess.ID)

			Convey("Then the cursor returns to the first question", func() {
				So(err, ShouldBeNil)
				So(got.Step, ShouldEqual, 0)
				_, err = svc.Back(ctx, sess.ID)
				So(errors.Is(err, collector.ErrAtFirstQuestion), ShouldBeTrue)
			})
		})
	})

	Convey("Given a blank owner", t, func() {
		svc := startService(service.WithCatalog(testCatalog()))
		defer svc.Stop()

		_, err := svc.StartSession(context.Background(), "  ")

		Convey("Then the session is refused", func() {
			So(errors.Is(err, collector.ErrMissingOwner), ShouldBeTrue)
		})
	})
}

func TestService_SessionLimit(t *testing.T) {
	Convey("Given a session limit of one", t, func() {
		svc := startService(service.WithCatalog(testCatalog()), service.WithSessionLimit(1),
			service.WithScorer(&fixedScorer{}))
		defer svc.Stop()
		ctx := context.Background()

		first, err := svc.StartSession(ctx, "u-1")
		So(err, ShouldBeNil)

		Convey("When the open session is still in progress", func() {
			_, err := svc.StartSession(ctx, "u-2")

			Convey("Then a second session is refused", func() {
				So(errors.Is(err, service.ErrSessionLimit), ShouldBeTrue)
			})
		})

		Convey("When the open session has been persisted", func() {
			for range 3 {
				_, err = svc.Advance(ctx, first.ID)
			}
			So(err, ShouldBeNil)
			second, err := svc.StartSession(ctx, "u-2")

			Convey("Then it is evicted to make room", func() {
				So(err, ShouldBeNil)
				So(second.ID, ShouldNotEqual, first.ID)
				_, err = svc.Session(ctx, first.ID)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_SubmitForm(t *testing.T) {
	Convey("Given a started service", t, func() {
		scorer := &fixedScorer{}
		svc := startService(service.WithCatalog(testCatalog()), service.WithScorer(scorer))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a form is submitted twice with the same id", func() {
			first, err := svc.SubmitForm(ctx, "u-1", map[string]float64{"q3": 10, "q1": 2}, "sub-1")
			So(err, ShouldBeNil)
			_, err = svc.SubmitForm(ctx, "u-1", map[string]float64{"q1": 2}, "sub-1")

			Convey("Then only the first is scored", func() {
				So(first.Persisted, ShouldBeTrue)
				So(first.Category, ShouldEqual, history.Good)
				So(scorer.seen.Load(), ShouldResemble, model.FeatureVector{2, 0, 10})
				So(errors.Is(err, submission.ErrDuplicate), ShouldBeTrue)
				So(scorer.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When a form names an unknown question", func() {
			_, err := svc.SubmitForm(ctx, "u-1", map[string]float64{"q9": 2}, "")

			Convey("Then nothing is scored", func() {
				So(errors.Is(err, catalog.ErrNotFound), ShouldBeTrue)
				So(scorer.calls.Load(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a store that cannot write", t, func() {
		mem := repository.NewMemoryStore(context.Background())
		svc := startService(service.WithCatalog(testCatalog()), service.WithScorer(&fixedScorer{}),
			service.WithStore(failingStore{Store: mem}))
		defer svc.Stop()

		got, err := svc.SubmitForm(context.Background(), "u-1", map[string]float64{"q1": 5}, "")

		Convey("Then the score is returned unpersisted", func() {
			So(errors.Is(err, submission.ErrPersistence), ShouldBeTrue)
			So(got.Score, ShouldEqual, 66)
			So(got.Persisted, ShouldBeFalse)
			So(got.Record, ShouldBeNil)
		})
	})
}

func TestService_PredictAndBatch(t *testing.T) {
	Convey("Given a service with a local model over the test catalog", t, func() {
		cat := testCatalog()
		svc := startService(service.WithCatalog(cat), service.WithLocalScorer(scoring.NewLocalScorer(cat)),
			service.WithScorerTimeout(time.Second), service.WithWorkerCount(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When predicting a full vector", func() {
			res, err := svc.Predict(ctx, model.FeatureVector{10, 10, 10})

			Convey("Then the model scores it", func() {
				So(err, ShouldBeNil)
				So(res.Score, ShouldEqual, 100)
				So(res.Label, ShouldEqual, scoring.LabelGood)
			})
		})

		Convey("When predicting a short vector", func() {
			_, err := svc.Predict(ctx, model.FeatureVector{1})

			Convey("Then the input is rejected", func() {
				So(errors.Is(err, scoring.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a CSV batch is scored", func() {
			in := strings.NewReader("q2,q1,q3,WORK_LIFE_BALANCE_SCORE\n10,10,10,700\n0,0,0,500\n")
			var out bytes.Buffer
			sum, err := svc.Batch(ctx, in, &out)

			Convey("Then every row is annotated in order", func() {
				So(err, ShouldBeNil)
				So(sum.Rows, ShouldEqual, 2)
				So(sum.Scored, ShouldEqual, 2)
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				So(lines[0], ShouldEqual, "q2,q1,q3,score,label,category,error")
				So(lines[1], ShouldStartWith, "10,10,10,100,Good,Excellent")
				So(lines[2], ShouldStartWith, "0,0,0,0,Bad,Bad")
			})
		})
	})
}
