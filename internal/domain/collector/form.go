package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/pkg/metrics"
)

// Form is the single-page front end: any question may be answered in any
// order, then the whole set is submitted at once.
type Form struct {
	mu sync.Mutex

	cat       *catalog.Catalog
	ownerID   string
	submitter submission.Submitter
	answers   model.AnswerSet
}

// NewForm creates an empty form for ownerID.
func NewForm(cat *catalog.Catalog, ownerID string, submitter submission.Submitter) (*Form, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	return &Form{cat: cat, ownerID: ownerID, submitter: submitter, answers: model.AnswerSet{}}, nil
}

// Set validates and records one answer.
func (f *Form) Set(id string, value float64) error {
	if err := f.validate(id, value); err != nil {
		return err
	}
	f.mu.Lock()
	f.answers.Set(id, value)
	f.mu.Unlock()
	metrics.RecordAnswerSelected()
	return nil
}

// SetAll validates every answer first and records them only if all are valid.
func (f *Form) SetAll(answers map[string]float64) error {
	for id, v := range answers {
		if err := f.validate(id, v); err != nil {
			return err
		}
	}
	f.mu.Lock()
	for id, v := range answers {
		f.answers.Set(id, v)
	}
	f.mu.Unlock()
	return nil
}

// Answers returns a snapshot of the recorded answers.
func (f *Form) Answers() model.AnswerSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers.Clone()
}

// Submit scores the current answers. submissionID is an optional idempotency key.
func (f *Form) Submit(ctx context.Context, submissionID string) (submission.Outcome, error) {
	return f.submitter.Submit(ctx, submission.Submission{
		ID:      submissionID,
		OwnerID: f.ownerID,
		Flow:    submission.FlowForm,
		Answers: f.Answers(),
	})
}

func (f *Form) validate(id string, value float64) error {
	i, err := f.cat.IndexOf(id)
	if err != nil {
		return err
	}
	q, err := f.cat.At(i)
	if err != nil {
		return err
	}
	if !q.HasChoice(value) {
		metrics.RecordInvalidChoice()
		return fmt.Errorf("%w: %v is not a choice of %s", ErrInvalidChoice, value, id)
	}
	return nil
}
