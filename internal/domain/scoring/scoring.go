// Package scoring defines the contract for turning a feature vector into a score.
package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/model"
)

const (
	defaultFeatureWeight = 1.0
	defaultRandomSeed    = 42
	maxScoreValue        = 100
)

// Label thresholds of the local model's three classes.
const (
	LabelBad     = "Bad"
	LabelAverage = "Average"
	LabelGood    = "Good"

	badBelow     = 40
	averageBelow = 65
)

// Scorer computes a score for a feature vector. It is a single blocking round
// trip; implementations never retry on their own.
type Scorer interface {
	Score(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error) {
	return f(ctx, features)
}

// Option applies a configuration option to the LocalScorer.
type Option func(*LocalScorer)

// WithLatencyRange simulates model latency between minLatency and maxLatency.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *LocalScorer) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithFeatureWeights sets per-question weights. A negative weight inverts the
// question's scale (high answers lower the score); zero excludes it.
func WithFeatureWeights(weights map[string]float64) Option {
	return func(s *LocalScorer) {
		s.weights = make(map[string]float64, len(weights))
		for id, w := range weights {
			s.weights[id] = w
		}
	}
}

// LocalScorer is an in-process model: a weighted mean of the answers scaled
// to 0..100.
type LocalScorer struct {
	cat     *catalog.Catalog
	weights map[string]float64

	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalScorer creates a local scorer for vectors built from cat.
func NewLocalScorer(cat *catalog.Catalog, opts ...Option) *LocalScorer {
	s := &LocalScorer{
		cat:     cat,
		weights: make(map[string]float64),
		rng:     rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // latency jitter only
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the weighted score, honoring ctx during simulated latency.
func (s *LocalScorer) Score(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error) {
	if len(features) != s.cat.Size() {
		return model.ScoreResult{}, fmt.Errorf("%w: got %d features, want %d", ErrInvalidInput, len(features), s.cat.Size())
	}

	if latency := s.latency(); latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.ScoreResult{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	var sum, total float64
	for i, id := range s.cat.IDs() {
		w, ok := s.weights[id]
		if !ok {
			w = defaultFeatureWeight
		}
		v := features[i]
		if w < 0 {
			v = catalog.MaxChoiceValue - v
			w = -w
		}
		sum += w * v
		total += w * catalog.MaxChoiceValue
	}

	score := 0.0
	if total > 0 {
		score = math.Round(sum/total*maxScoreValue*10) / 10
	}
	score = math.Max(0, math.Min(maxScoreValue, score))
	return model.ScoreResult{Score: score, Label: Label(score)}, nil
}

func (s *LocalScorer) latency() time.Duration {
	if s.maxLatency <= 0 {
		return 0
	}
	spread := int64(s.maxLatency - s.minLatency)
	if spread <= 0 {
		return s.minLatency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minLatency + time.Duration(s.rng.Int63n(spread))
}

// Label maps a 0..100 score to the model's class label.
func Label(score float64) string {
	switch {
	case score < badBelow:
		return LabelBad
	case score < averageBelow:
		return LabelAverage
	default:
		return LabelGood
	}
}
