package service

import (
	"time"

	"github.com/okian/balance/internal/adapters/repository"
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/collector"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the question catalog. Defaults to catalog.Default().
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Service) {
		if cat != nil {
			s.cat = cat
		}
	}
}

// WithScorer sets the scorer submissions use. Defaults to the local scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithLocalScorer sets the in-process model behind Predict.
func WithLocalScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.local = scorer
		}
	}
}

// WithStore sets the record store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithNotifier publishes every written record.
func WithNotifier(n submission.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAllowRevisit lets sessions step back to earlier questions.
func WithAllowRevisit(allow bool) Option {
	return func(s *Service) {
		s.policy = collector.Policy{AllowRevisit: allow}
	}
}

// WithSessionLimit caps the number of open sessions.
func WithSessionLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sessionLimit = n
		}
	}
}

// WithDedupeSize sets the size of the submission id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithScorerTimeout bounds each scoring round trip.
func WithScorerTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scorerTimeout = d
		}
	}
}

// WithWorkerCount sets the number of batch scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch row queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
