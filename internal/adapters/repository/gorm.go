package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/pkg/metrics"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// resultRow is the table layout. Seq preserves insertion order for ties;
// RecordedAt is nullable for legacy rows and is set by the store, not gorm.
type resultRow struct {
	Seq        uint64         `gorm:"column:seq;primaryKey;autoIncrement"`
	ID         string         `gorm:"column:id;size:36;uniqueIndex;not null"`
	OwnerID    string         `gorm:"column:owner_id;size:128;index;not null"`
	Answers    datatypes.JSON `gorm:"column:answers"`
	Score      float64        `gorm:"column:score"`
	Label      string         `gorm:"column:label;size:64"`
	RecordedAt *time.Time     `gorm:"column:created_at;index"`
}

func (resultRow) TableName() string { return "result_records" }

// GormStore persists records in SQLite or Postgres through gorm.
type GormStore struct {
	db   *gorm.DB
	opts options

	wg       sync.WaitGroup
	stopChan chan struct{}
	once     sync.Once
}

// OpenGormStore opens the database for driver/dsn and migrates the schema.
func OpenGormStore(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and serializes writers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewGormStore(ctx, db, opts...)
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(ctx context.Context, db *gorm.DB, opts ...Option) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&resultRow{}); err != nil {
		return nil, fmt.Errorf("migrate result records: %w", err)
	}
	s := &GormStore{db: db, opts: defaultOptions(), stopChan: make(chan struct{})}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.startMetricsUpdater(ctx)
	return s, nil
}

// Append implements Store.Append.
func (s *GormStore) Append(ctx context.Context, rec model.NewRecord) (model.ResultRecord, error) {
	if strings.TrimSpace(rec.OwnerID) == "" {
		return model.ResultRecord{}, ErrMissingOwner
	}
	now := s.opts.now().UTC()
	stored := model.ResultRecord{
		ID:        s.opts.newID(),
		OwnerID:   rec.OwnerID,
		Answers:   rec.Answers.Clone(),
		Score:     rec.Score,
		Label:     rec.Label,
		CreatedAt: &now,
	}
	if err := s.insert(ctx, stored); err != nil {
		return model.ResultRecord{}, err
	}
	return stored, nil
}

// Import stores a record as-is, keeping its id and a possibly nil timestamp.
func (s *GormStore) Import(ctx context.Context, rec model.ResultRecord) error {
	if strings.TrimSpace(rec.OwnerID) == "" {
		return ErrMissingOwner
	}
	if rec.ID == "" {
		rec.ID = s.opts.newID()
	}
	return s.insert(ctx, rec)
}

func (s *GormStore) insert(ctx context.Context, rec model.ResultRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Get implements Store.Get.
func (s *GormStore) Get(ctx context.Context, id string) (model.ResultRecord, error) {
	var row resultRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ResultRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.ResultRecord{}, fmt.Errorf("get record: %w", err)
	}
	return fromRow(row)
}

// ListByOwner implements Store.ListByOwner.
func (s *GormStore) ListByOwner(ctx context.Context, ownerID string) ([]model.ResultRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	var rows []resultRow
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at IS NULL, created_at ASC, seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]model.ResultRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count implements Store.Count.
func (s *GormStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&resultRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int(n), nil
}

// Close stops the metrics updater and closes the connection pool.
func (s *GormStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stopChan)
		s.wg.Wait()

		sqlDB, dbErr := s.db.DB()
		if dbErr != nil {
			err = dbErr
			return
		}
		err = sqlDB.Close()
	})
	return err
}

func (s *GormStore) startMetricsUpdater(ctx context.Context) {
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
				if n, err := s.Count(ctx); err == nil {
					metrics.UpdateRecordsTotal(n)
				} else {
					metrics.RecordErrorByComponent("store", "count")
				}
			}
		}
	}()
}

func toRow(rec model.ResultRecord) (resultRow, error) {
	answers, err := json.Marshal(rec.Answers.Clone())
	if err != nil {
		return resultRow{}, fmt.Errorf("encode answers: %w", err)
	}
	var at *time.Time
	if rec.CreatedAt != nil {
		t := rec.CreatedAt.UTC()
		at = &t
	}
	return resultRow{
		ID:         rec.ID,
		OwnerID:    rec.OwnerID,
		Answers:    datatypes.JSON(answers),
		Score:      rec.Score,
		Label:      rec.Label,
		RecordedAt: at,
	}, nil
}

func fromRow(row resultRow) (model.ResultRecord, error) {
	answers := model.AnswerSet{}
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return model.ResultRecord{}, fmt.Errorf("decode answers of %s: %w", row.ID, err)
		}
	}
	return model.ResultRecord{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Answers:   answers,
		Score:     row.Score,
		Label:     row.Label,
		CreatedAt: row.RecordedAt,
	}, nil
}
