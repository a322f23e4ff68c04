package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/pkg/metrics"
)

// MemoryStore keeps records in process memory, indexed by owner.
type MemoryStore struct {
	opts options

	mu      sync.RWMutex
	byID    map[string]model.ResultRecord
	byOwner map[string][]string // record ids in insertion order
	closed  bool

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryStore creates an in-memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		opts:     defaultOptions(),
		byID:     make(map[string]model.ResultRecord),
		byOwner:  make(map[string][]string),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Append implements Store.Append.
func (s *MemoryStore) Append(_ context.Context, rec model.NewRecord) (model.ResultRecord, error) {
	if strings.TrimSpace(rec.OwnerID) == "" {
		return model.ResultRecord{}, ErrMissingOwner
	}
	now := s.opts.now()
	stored := model.ResultRecord{
		ID:        s.opts.newID(),
		OwnerID:   rec.OwnerID,
		Answers:   rec.Answers.Clone(),
		Score:     rec.Score,
		Label:     rec.Label,
		CreatedAt: &now,
	}
	if err := s.insert(stored); err != nil {
		return model.ResultRecord{}, err
	}
	return clone(stored), nil
}

// Import stores a record as-is, keeping its id and timestamp (which may be
// nil). It is meant for legacy rows.
func (s *MemoryStore) Import(_ context.Context, rec model.ResultRecord) error {
	if strings.TrimSpace(rec.OwnerID) == "" {
		return ErrMissingOwner
	}
	if rec.ID == "" {
		rec.ID = s.opts.newID()
	}
	return s.insert(clone(rec))
}

func (s *MemoryStore) insert(rec model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.byID[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	s.byID[rec.ID] = rec
	s.byOwner[rec.OwnerID] = append(s.byOwner[rec.OwnerID], rec.ID)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return model.ResultRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(rec), nil
}

// ListByOwner implements Store.ListByOwner.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]model.ResultRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	s.mu.RLock()
	ids := s.byOwner[ownerID]
	out := make([]model.ResultRecord, len(ids))
	for i, id := range ids {
		out[i] = clone(s.byID[id])
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b model.ResultRecord) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return 0
		case a.CreatedAt == nil:
			return 1
		case b.CreatedAt == nil:
			return -1
		}
		return a.CreatedAt.Compare(*b.CreatedAt)
	})
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Close stops the metrics updater. Later writes fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.Count(ctx)
				metrics.UpdateRecordsTotal(n)
			}
		}
	}()
}

func clone(r model.ResultRecord) model.ResultRecord {
	r.Answers = r.Answers.Clone()
	if r.CreatedAt != nil {
		t := *r.CreatedAt
		r.CreatedAt = &t
	}
	return r
}
