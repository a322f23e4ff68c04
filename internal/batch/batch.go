// Package batch scores a CSV file of survey rows through the worker pool and
// writes the rows back with score, label and category columns.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/balance/internal/adapters/mq/queue"
	"github.com/okian/balance/internal/adapters/mq/worker"
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/features"
	"github.com/okian/balance/internal/domain/history"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/pkg/logger"
)

// DefaultTarget is the label column of the training data.
const DefaultTarget = "WORK_LIFE_BALANCE_SCORE"

// Output columns appended to every row.
var resultColumns = []string{"score", "label", "category", "error"} //nolint:gochecknoglobals // fixed output layout

var (
	// ErrEmptyInput is returned when the input has no header row.
	ErrEmptyInput = errors.New("input has no header")
	// ErrBadValue marks a row with a non-numeric feature cell.
	ErrBadValue = errors.New("non-numeric value")
)

// Summary counts what a run did.
type Summary struct {
	Rows     int           `json:"rows"`
	Scored   int           `json:"scored"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent scoring workers.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the row queue.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithDropColumns removes target columns from the input before scoring and
// from the output.
func WithDropColumns(cols ...string) Option {
	return func(r *Runner) {
		r.drop = nil
		for _, c := range cols {
			if c = strings.TrimSpace(c); c != "" {
				r.drop = append(r.drop, c)
			}
		}
	}
}

// WithJobTimeout bounds each row's scoring call.
func WithJobTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.jobTimeout = d
		}
	}
}

// Runner scores CSV rows against a catalog.
type Runner struct {
	cat        *catalog.Catalog
	scorer     scoring.Scorer
	workers    int
	queueSize  int
	jobTimeout time.Duration
	drop       []string
	logger     logger.Logger
}

// New creates a Runner. The logger must be initialized.
func New(cat *catalog.Catalog, scorer scoring.Scorer, opts ...Option) *Runner {
	r := &Runner{
		cat:        cat,
		scorer:     scorer,
		workers:    4,
		queueSize:  100,
		jobTimeout: 10 * time.Second,
		drop:       []string{DefaultTarget},
		logger:     logger.Get().Named("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type row struct {
	cells  []string
	result worker.Result
}

// Run reads rows from in, scores them and writes the annotated rows to out in
// input order. A row that cannot be parsed or scored is written with an
// empty score and its error; it does not stop the run.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	start := time.Now()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Summary{}, ErrEmptyInput
	}
	if err != nil {
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	records, err := reader.ReadAll()
	if err != nil {
		return Summary{}, fmt.Errorf("read rows: %w", err)
	}

	keep := r.keptColumns(header)
	rows := make([]row, len(records))
	for i, rec := range records {
		rows[i] = row{cells: rec}
	}

	if err := r.score(ctx, header, rows); err != nil {
		return Summary{}, err
	}

	sum := Summary{Rows: len(rows)}
	w := csv.NewWriter(out)
	outHeader := make([]string, 0, len(keep)+len(resultColumns))
	for _, i := range keep {
		outHeader = append(outHeader, header[i])
	}
	if err := w.Write(append(outHeader, resultColumns...)); err != nil {
		return Summary{}, fmt.Errorf("write header: %w", err)
	}
	for _, rw := range rows {
		line := make([]string, 0, len(keep)+len(resultColumns))
		for _, i := range keep {
			line = append(line, cell(rw.cells, i))
		}
		if rw.result.Err != nil {
			sum.Failed++
			line = append(line, "", "", "", rw.result.Err.Error())
		} else {
			sum.Scored++
			score := rw.result.Score.Score
			line = append(line,
				strconv.FormatFloat(score, 'f', -1, 64),
				rw.result.Score.Label,
				string(history.CategoryBucket(&score)),
				"")
		}
		if err := w.Write(line); err != nil {
			return Summary{}, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Summary{}, fmt.Errorf("flush output: %w", err)
	}

	sum.Duration = time.Since(start)
	r.logger.Info(ctx, "batch scored",
		logger.Int("rows", sum.Rows),
		logger.Int("scored", sum.Scored),
		logger.Int("failed", sum.Failed),
		logger.Duration("duration", sum.Duration))
	return sum, nil
}

// score runs every parsable row through the queue and worker pool.
func (r *Runner) score(ctx context.Context, header []string, rows []row) error {
	q := queue.NewInMemoryQueue(queue.WithCapacity(r.queueSize))
	sink := worker.SinkFunc(func(_ context.Context, res worker.Result) {
		rows[res.Index].result = res
	})
	pool := worker.NewPool(r.workers, q, r.scorer, sink, worker.WithJobTimeout(r.jobTimeout))

	g, gctx := errgroup.WithContext(ctx)
	pool.Start(gctx)

	g.Go(func() error {
		defer q.Close()
		for i := range rows {
			vec, err := r.parse(header, rows[i].cells)
			if err != nil {
				rows[i].result = worker.Result{Index: i, Err: err}
				continue
			}
			if err := q.Push(gctx, queue.Job{Index: i, Features: vec}); err != nil {
				return fmt.Errorf("enqueue row %d: %w", i+1, err)
			}
		}
		return nil
	})
	g.Go(func() error {
		return pool.Wait(gctx)
	})
	return g.Wait()
}

// parse aligns a CSV row to the catalog. Only catalog columns are parsed;
// empty cells count as unanswered.
func (r *Runner) parse(header, cells []string) ([]float64, error) {
	cols := make([]string, 0, len(header))
	vals := make([]float64, 0, len(header))
	for i, col := range header {
		if slices.Contains(r.drop, col) {
			continue
		}
		if _, err := r.cat.IndexOf(col); err != nil {
			continue
		}
		raw := strings.TrimSpace(cell(cells, i))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w in %s: %q", ErrBadValue, col, raw)
		}
		cols = append(cols, col)
		vals = append(vals, v)
	}
	return features.Align(r.cat, cols, vals), nil
}

func (r *Runner) keptColumns(header []string) []int {
	keep := make([]int, 0, len(header))
	for i, col := range header {
		if !slices.Contains(r.drop, col) {
			keep = append(keep, i)
		}
	}
	return keep
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
