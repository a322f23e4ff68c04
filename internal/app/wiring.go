package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/balance/internal/adapters/notify"
	"github.com/okian/balance/internal/adapters/repository"
	"github.com/okian/balance/internal/adapters/scoringclient"
	"github.com/okian/balance/internal/config"
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/pkg/logger"
)

// FromConfig builds a Service from cfg. It opens the store and, when
// configured, the Redis publisher and the remote scorer; Stop closes them.
func FromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.Get().Named("wiring")

	var remote *scoringclient.Client
	if cfg.ScorerMode == config.ScorerModeHTTP {
		c, err := scoringclient.New(cfg.ScorerURL,
			scoringclient.WithRateLimit(cfg.ScorerRatePerSec, cfg.ScorerBurst))
		if err != nil {
			return nil, err
		}
		remote = c
	}

	cat, err := loadCatalog(ctx, cfg, remote)
	if err != nil {
		return nil, err
	}

	local := scoring.NewLocalScorer(cat,
		scoring.WithFeatureWeights(cfg.FeatureWeights),
		scoring.WithLatencyRange(
			time.Duration(cfg.ScoringLatencyMinMS)*time.Millisecond,
			time.Duration(cfg.ScoringLatencyMaxMS)*time.Millisecond))

	var scorer scoring.Scorer = local
	if remote != nil {
		scorer = remote
	}

	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := []Option{
		WithCatalog(cat),
		WithScorer(scorer),
		WithLocalScorer(local),
		WithStore(store),
		WithAllowRevisit(cfg.AllowRevisit),
		WithSessionLimit(cfg.SessionLimit),
		WithDedupeSize(cfg.DedupeSize),
		WithScorerTimeout(cfg.ScorerTimeout()),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
	}

	if cfg.RedisAddr != "" {
		pub, err := notify.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect notifier: %w", err)
		}
		opts = append(opts, WithNotifier(pub))
		log.Info(ctx, "publishing results", logger.String("channel", cfg.RedisChannel))
	}

	log.Info(ctx, "components configured",
		logger.String("scorerMode", cfg.ScorerMode),
		logger.String("storeDriver", cfg.StoreDriver),
		logger.Int("questions", cat.Size()))
	return New(opts...), nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, remote *scoringclient.Client) (*catalog.Catalog, error) {
	switch {
	case cfg.CatalogPath != "":
		return catalog.LoadFile(cfg.CatalogPath)
	case cfg.DiscoverColumns && remote != nil:
		cols, err := remote.Columns(ctx)
		if err != nil {
			return nil, fmt.Errorf("discover columns: %w", err)
		}
		return catalog.FromColumns(cols)
	default:
		return catalog.Default(), nil
	}
}
