// Package submission runs one scoring round: build features, score, persist.
// Every collector front end goes through the same Pipeline.
package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/dedupe"
	"github.com/okian/balance/internal/domain/features"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/pkg/logger"
	"github.com/okian/balance/pkg/metrics"
)

const defaultTimeout = 5 * time.Second

// Flow names used in logs and metrics.
const (
	FlowPaginated = "paginated"
	FlowForm      = "form"
	FlowCLI       = "cli"
)

// Submission is a completed answer set ready to be scored.
type Submission struct {
	// ID is an optional client idempotency key.
	ID      string
	OwnerID string
	Flow    string
	Answers model.AnswerSet
}

// Outcome is the result of a scoring round. Record is nil when persistence failed.
type Outcome struct {
	Result model.ScoreResult
	Record *model.ResultRecord
}

// Persisted reports whether a record was written.
func (o Outcome) Persisted() bool { return o.Record != nil }

// Recorder writes result records.
type Recorder interface {
	Append(ctx context.Context, rec model.NewRecord) (model.ResultRecord, error)
}

// Notifier is told about every written record. Failures are logged only.
type Notifier interface {
	RecordCreated(ctx context.Context, rec model.ResultRecord) error
}

// Submitter is what collectors call on completion.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (Outcome, error)
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithTimeout bounds the scoring round trip.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithDeduper enables idempotency on Submission.ID.
func WithDeduper(d dedupe.Deduper) Option {
	return func(p *Pipeline) { p.deduper = d }
}

// WithNotifier publishes written records.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline turns submissions into scored, persisted records.
type Pipeline struct {
	cat      *catalog.Catalog
	scorer   scoring.Scorer
	recorder Recorder
	deduper  dedupe.Deduper
	notifier Notifier
	timeout  time.Duration
	logger   logger.Logger
}

// NewPipeline creates a pipeline over cat. The logger must be initialized.
func NewPipeline(cat *catalog.Catalog, scorer scoring.Scorer, recorder Recorder, opts ...Option) *Pipeline {
	p := &Pipeline{
		cat:      cat,
		scorer:   scorer,
		recorder: recorder,
		timeout:  defaultTimeout,
		logger:   logger.Get().Named("submission"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog feature vectors are built from.
func (p *Pipeline) Catalog() *catalog.Catalog { return p.cat }

// Submit scores and persists one submission. On ErrPersistence the returned
// Outcome still holds the score. The scorer is called at most once.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	if strings.TrimSpace(sub.OwnerID) == "" {
		return Outcome{}, ErrMissingOwner
	}
	flow := sub.Flow
	if flow == "" {
		flow = FlowForm
	}
	log := p.logger.With(logger.String("owner_id", sub.OwnerID), logger.String("flow", flow))

	if sub.ID != "" && p.deduper != nil && p.deduper.SeenAndRecord(ctx, sub.ID) {
		metrics.RecordSubmission(flow, "duplicate")
		return Outcome{}, fmt.Errorf("%w: %s", ErrDuplicate, sub.ID)
	}

	vec := features.Build(p.cat, sub.Answers)

	scoreCtx, cancel := context.WithTimeout(ctx, p.timeout)
	start := time.Now()
	result, err := p.scorer.Score(scoreCtx, vec)
	cancel()
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.release(ctx, sub.ID)
		metrics.RecordScoringError(scoring.Kind(err))
		metrics.RecordSubmission(flow, "submission_failed")
		log.Warn(ctx, "scoring failed", logger.Error(err))
		return Outcome{}, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	out := Outcome{Result: result}
	rec, err := p.recorder.Append(ctx, model.NewRecord{
		OwnerID: sub.OwnerID,
		Answers: sub.Answers.Clone(),
		Score:   result.Score,
		Label:   result.Label,
	})
	if err != nil {
		p.release(ctx, sub.ID)
		metrics.RecordPersistenceError()
		metrics.RecordErrorByComponent("store", "append")
		metrics.RecordSubmission(flow, "persistence_failed")
		log.Error(ctx, "record not persisted", logger.Float64("score", result.Score), logger.Error(err))
		return out, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	out.Record = &rec
	metrics.RecordRecordAppended()
	metrics.RecordSubmission(flow, "scored")
	log.Info(ctx, "submission scored",
		logger.String("record_id", rec.ID),
		logger.Float64("score", result.Score),
		logger.String("label", result.Label))

	if p.notifier != nil {
		if err := p.notifier.RecordCreated(ctx, rec); err != nil {
			metrics.RecordNotification("failed")
			log.Warn(ctx, "record notification failed", logger.Error(err))
		} else {
			metrics.RecordNotification("published")
		}
	}
	return out, nil
}

// release lets a failed submission id be retried.
func (p *Pipeline) release(ctx context.Context, id string) {
	if id != "" && p.deduper != nil {
		p.deduper.Unrecord(ctx, id)
	}
}
