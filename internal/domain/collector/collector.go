// Package collector walks a catalog and gathers one answer per question.
//
// Two front ends share one submission pipeline: Collector presents one
// question per step, Form accepts every answer at once.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/pkg/metrics"
)

// State of a paginated collector.
type State int

const (
	InProgress State = iota
	Complete
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy controls optional collector behaviour.
type Policy struct {
	// AllowRevisit enables Back to an already answered step.
	AllowRevisit bool
}

// Option applies a configuration option to a Collector.
type Option func(*Collector)

// WithPolicy sets the collector policy.
func WithPolicy(p Policy) Option {
	return func(c *Collector) { c.policy = p }
}

// WithFlow sets the flow name reported to the submitter.
func WithFlow(flow string) Option {
	return func(c *Collector) {
		if flow != "" {
			c.flow = flow
		}
	}
}

// Collector is the paginated state machine: a cursor over the catalog plus
// the answers selected so far. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	cat       *catalog.Catalog
	ownerID   string
	submitter submission.Submitter
	policy    Policy
	flow      string

	step    int
	answers model.AnswerSet
	state   State

	submitting bool
	outcome    *submission.Outcome
	lastErr    error
}

// New creates a collector positioned at the first question.
func New(cat *catalog.Catalog, ownerID string, submitter submission.Submitter, opts ...Option) (*Collector, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	c := &Collector{
		cat:       cat,
		ownerID:   ownerID,
		submitter: submitter,
		flow:      submission.FlowPaginated,
		answers:   model.AnswerSet{},
		state:     InProgress,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OwnerID returns the owner the answers belong to.
func (c *Collector) OwnerID() string { return c.ownerID }

// Select records value for the current question, replacing an earlier
// selection. The cursor does not move.
func (c *Collector) Select(value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Complete {
		return ErrCompleted
	}
	q, err := c.cat.At(c.step)
	if err != nil {
		return err
	}
	if !q.HasChoice(value) {
		metrics.RecordInvalidChoice()
		return fmt.Errorf("%w: %v is not a choice of %s", ErrInvalidChoice, value, q.ID)
	}
	c.answers.Set(q.ID, value)
	metrics.RecordAnswerSelected()
	return nil
}

// Advance moves to the next question. On the last question it completes the
// collector and runs the single scoring round, returning its error.
func (c *Collector) Advance(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Complete {
		c.mu.Unlock()
		return ErrCompleted
	}
	if c.step < c.cat.Size()-1 {
		c.step++
		c.mu.Unlock()
		return nil
	}
	c.state = Complete
	c.mu.Unlock()

	_, err := c.submit(ctx)
	return err
}

// Back steps to the previous question when the policy allows it.
func (c *Collector) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.policy.AllowRevisit {
		return ErrRevisitDisabled
	}
	if c.state == Complete {
		return ErrCompleted
	}
	if c.step == 0 {
		return ErrAtFirstQuestion
	}
	c.step--
	return nil
}

// Submit retries the scoring round after a failure. It is only valid once
// the collector is complete and no record has been written yet.
func (c *Collector) Submit(ctx context.Context) (submission.Outcome, error) {
	c.mu.Lock()
	if c.state != Complete {
		c.mu.Unlock()
		return submission.Outcome{}, ErrNotComplete
	}
	c.mu.Unlock()
	return c.submit(ctx)
}

func (c *Collector) submit(ctx context.Context) (submission.Outcome, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return submission.Outcome{}, ErrSubmissionPending
	}
	if c.outcome != nil && c.outcome.Persisted() {
		c.mu.Unlock()
		return submission.Outcome{}, ErrAlreadySubmitted
	}
	c.submitting = true
	sub := submission.Submission{OwnerID: c.ownerID, Flow: c.flow, Answers: c.answers.Clone()}
	c.mu.Unlock()

	out, err := c.submitter.Submit(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	c.lastErr = err
	if err == nil || errors.Is(err, submission.ErrPersistence) {
		c.outcome = &out
	}
	return out, err
}

// Snapshot is a read-only view of the collector.
type Snapshot struct {
	OwnerID    string
	Step       int
	Size       int
	State      State
	Question   *catalog.Question
	Answers    model.AnswerSet
	Submitting bool
	Outcome    *submission.Outcome
	Err        error
}

// Snapshot returns the current state. Question is nil once complete.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		OwnerID:    c.ownerID,
		Step:       c.step,
		Size:       c.cat.Size(),
		State:      c.state,
		Answers:    c.answers.Clone(),
		Submitting: c.submitting,
		Err:        c.lastErr,
	}
	if c.state == InProgress {
		if q, err := c.cat.At(c.step); err == nil {
			s.Question = &q
		}
	}
	if c.outcome != nil {
		out := *c.outcome
		s.Outcome = &out
	}
	return s
}
