// Package service wires the survey components together and exposes the
// operations the transports need.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/balance/internal/adapters/repository"
	"github.com/okian/balance/internal/batch"
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/collector"
	"github.com/okian/balance/internal/domain/dedupe"
	"github.com/okian/balance/internal/domain/history"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/internal/domain/types"
	"github.com/okian/balance/pkg/logger"
	"github.com/okian/balance/pkg/metrics"
)

const (
	defaultSessionLimit  = 10_000
	defaultDedupeSize    = 50_000
	defaultScorerTimeout = 5 * time.Second
)

type session struct {
	id        string
	collector *collector.Collector
	created   time.Time
}

// Service implements the API dependencies for the survey.
type Service struct {
	mu sync.RWMutex

	// Components; any left nil is defaulted in Start.
	cat      *catalog.Catalog
	scorer   scoring.Scorer
	local    scoring.Scorer
	store    repository.Store
	notifier submission.Notifier
	deduper  dedupe.Deduper
	pipeline *submission.Pipeline

	// Configuration
	policy        collector.Policy
	sessionLimit  int
	dedupeSize    int
	scorerTimeout time.Duration
	workerCount   int
	queueSize     int

	sessionsMu sync.Mutex
	sessions   map[string]*session

	started bool
	closers []func() error

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessionLimit:  defaultSessionLimit,
		dedupeSize:    defaultDedupeSize,
		scorerTimeout: defaultScorerTimeout,
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     1000,
		sessions:      make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fills in default components and builds the submission pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting survey service...")

	if s.cat == nil {
		s.cat = catalog.Default()
	}
	if s.local == nil {
		s.local = scoring.NewLocalScorer(s.cat)
	}
	if s.scorer == nil {
		s.scorer = s.local
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
	}
	s.closers = append(s.closers, s.store.Close)
	if c, ok := s.notifier.(interface{ Close() error }); ok {
		s.closers = append(s.closers, c.Close)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	popts := []submission.Option{
		submission.WithTimeout(s.scorerTimeout),
		submission.WithDeduper(s.deduper),
	}
	if s.notifier != nil {
		popts = append(popts, submission.WithNotifier(s.notifier))
	}
	s.pipeline = submission.NewPipeline(s.cat, s.scorer, s.store, popts...)

	if n, err := s.store.Count(ctx); err == nil {
		metrics.UpdateRecordsTotal(n)
	}

	s.started = true
	s.logger.Info(ctx, "survey service started",
		logger.Int("questions", s.cat.Size()),
		logger.Bool("allowRevisit", s.policy.AllowRevisit),
		logger.Int("sessionLimit", s.sessionLimit),
		logger.Duration("scorerTimeout", s.scorerTimeout))
	return nil
}

// Stop releases the store and notifier.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping survey service...")

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn(ctx, "error closing component", logger.Error(err))
		}
	}
	s.closers = nil

	s.sessionsMu.Lock()
	s.sessions = make(map[string]*session)
	s.sessionsMu.Unlock()
	metrics.UpdateActiveSessions(0)

	s.started = false
	s.logger.Info(ctx, "survey service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Catalog returns the active question catalog.
func (s *Service) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat
}

// AllowRevisit reports whether sessions may step back.
func (s *Service) AllowRevisit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.AllowRevisit
}

// Columns returns the feature order served to scoring clients.
func (s *Service) Columns() []string {
	return s.Catalog().IDs()
}

// Predict scores a raw feature vector with the in-process model.
func (s *Service) Predict(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error) {
	if err := s.ready(); err != nil {
		return model.ScoreResult{}, err
	}
	start := time.Now()
	res, err := s.local.Score(ctx, features)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError(scoring.Kind(err))
	}
	return res, err
}

// StartSession opens a paginated collector for ownerID.
func (s *Service) StartSession(ctx context.Context, ownerID string) (types.Session, error) {
	if err := s.ready(); err != nil {
		return types.Session{}, err
	}
	c, err := collector.New(s.cat, ownerID, s.pipeline, collector.WithPolicy(s.policy))
	if err != nil {
		return types.Session{}, err
	}

	s.sessionsMu.Lock()
	if len(s.sessions) >= s.sessionLimit && !s.evictCompletedLocked() {
		s.sessionsMu.Unlock()
		metrics.RecordErrorByComponent("service", "session_limit")
		return types.Session{}, fmt.Errorf("%w: limit %d", ErrSessionLimit, s.sessionLimit)
	}
	sess := &session{id: uuid.NewString(), collector: c, created: time.Now()}
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.sessionsMu.Unlock()

	metrics.UpdateActiveSessions(active)
	s.logger.Debug(ctx, "session started", logger.String("session_id", sess.id), logger.String("owner_id", ownerID))
	return types.NewSession(sess.id, c.Snapshot()), nil
}

// evictCompletedLocked drops the oldest session that has a persisted
// outcome. It reports whether one was dropped.
func (s *Service) evictCompletedLocked() bool {
	var oldest *session
	for _, sess := range s.sessions {
		snap := sess.collector.Snapshot()
		if snap.Outcome == nil || !snap.Outcome.Persisted() {
			continue
		}
		if oldest == nil || sess.created.Before(oldest.created) {
			oldest = sess
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.sessions, oldest.id)
	return true
}

func (s *Service) session(id string) (*session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Session returns the current state of a session.
func (s *Service) Session(_ context.Context, id string) (types.Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.Session{}, err
	}
	return types.NewSession(id, sess.collector.Snapshot()), nil
}

// Answer selects value for the session's current question.
func (s *Service) Answer(_ context.Context, id string, value float64) (types.Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.Session{}, err
	}
	err = sess.collector.Select(value)
	return types.NewSession(id, sess.collector.Snapshot()), err
}

// Advance moves the session forward, submitting it after the last question.
// The returned session is valid even when err is a submission error.
func (s *Service) Advance(ctx context.Context, id string) (types.Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.Session{}, err
	}
	err = sess.collector.Advance(ctx)
	return types.NewSession(id, sess.collector.Snapshot()), err
}

// Back steps the session to the previous question.
func (s *Service) Back(_ context.Context, id string) (types.Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.Session{}, err
	}
	err = sess.collector.Back()
	return types.NewSession(id, sess.collector.Snapshot()), err
}

// Retry re-submits a completed session whose submission failed.
func (s *Service) Retry(ctx context.Context, id string) (types.Session, error) {
	sess, err := s.session(id)
	if err != nil {
		return types.Session{}, err
	}
	_, err = sess.collector.Submit(ctx)
	return types.NewSession(id, sess.collector.Snapshot()), err
}

// SubmitForm scores a flat answer set in one call. submissionID is an
// optional idempotency key.
func (s *Service) SubmitForm(ctx context.Context, ownerID string, answers map[string]float64, submissionID string) (types.Assessment, error) {
	if err := s.ready(); err != nil {
		return types.Assessment{}, err
	}
	form, err := collector.NewForm(s.cat, ownerID, s.pipeline)
	if err != nil {
		return types.Assessment{}, err
	}
	if err := form.SetAll(answers); err != nil {
		return types.Assessment{}, err
	}
	out, err := form.Submit(ctx, submissionID)
	if err != nil && !errors.Is(err, submission.ErrPersistence) {
		return types.Assessment{}, err
	}
	return types.NewAssessment(out), err
}

// History returns the derived history view for ownerID.
func (s *Service) History(ctx context.Context, ownerID string) (history.HistoryView, error) {
	if err := s.ready(); err != nil {
		return history.HistoryView{}, err
	}
	records, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return history.HistoryView{}, err
	}
	return history.New(ownerID).View(records), nil
}

// Records returns the raw records of ownerID, oldest first.
func (s *Service) Records(ctx context.Context, ownerID string) ([]model.ResultRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListByOwner(ctx, ownerID)
}

// Scorer returns the scorer submissions use.
func (s *Service) Scorer() scoring.Scorer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scorer
}

// Submit scores one answer set through the shared pipeline.
func (s *Service) Submit(ctx context.Context, sub submission.Submission) (submission.Outcome, error) {
	if err := s.ready(); err != nil {
		return submission.Outcome{}, err
	}
	return s.pipeline.Submit(ctx, sub)
}

// Batch scores CSV rows from in and writes the annotated rows to out.
// dropColumns replaces the default target column list when non-empty.
func (s *Service) Batch(ctx context.Context, in io.Reader, out io.Writer, dropColumns ...string) (batch.Summary, error) {
	if err := s.ready(); err != nil {
		return batch.Summary{}, err
	}
	opts := []batch.Option{
		batch.WithWorkers(s.workerCount),
		batch.WithQueueSize(s.queueSize),
		batch.WithJobTimeout(s.scorerTimeout),
	}
	if len(dropColumns) > 0 {
		opts = append(opts, batch.WithDropColumns(dropColumns...))
	}
	return batch.New(s.cat, s.scorer, opts...).Run(ctx, in, out)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"sessionLimit":  s.sessionLimit,
		"dedupeSize":    s.dedupeSize,
		"allowRevisit":  s.policy.AllowRevisit,
		"scorerTimeout": s.scorerTimeout.String(),
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
	}
	if !s.started {
		return stats
	}

	s.sessionsMu.Lock()
	active := len(s.sessions)
	s.sessionsMu.Unlock()

	stats["questions"] = s.cat.Size()
	stats["activeSessions"] = active
	stats["dedupeEntries"] = s.deduper.Size()
	if n, err := s.store.Count(context.Background()); err == nil {
		stats["records"] = n
		metrics.UpdateRecordsTotal(n)
	}
	metrics.UpdateActiveSessions(active)
	return stats
}
