// Package types contains the views shared by the service and its transports.
package types

import (
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/collector"
	"github.com/okian/balance/internal/domain/history"
	"github.com/okian/balance/internal/domain/model"
	"github.com/okian/balance/internal/domain/submission"
)

// Assessment is the outcome of one submission as shown to a client.
// Persisted is false when the score was computed but not stored.
type Assessment struct {
	Score     float64             `json:"score"`
	Label     string              `json:"label"`
	Category  history.Category    `json:"category"`
	Persisted bool                `json:"persisted"`
	Record    *model.ResultRecord `json:"record,omitempty"`
}

// NewAssessment converts a submission outcome.
func NewAssessment(out submission.Outcome) Assessment {
	score := out.Result.Score
	return Assessment{
		Score:     score,
		Label:     out.Result.Label,
		Category:  history.CategoryBucket(&score),
		Persisted: out.Persisted(),
		Record:    out.Record,
	}
}

// Session is a paginated collector session.
type Session struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"owner_id"`
	Step       int               `json:"step"`
	Size       int               `json:"size"`
	State      string            `json:"state"`
	Question   *catalog.Question `json:"question,omitempty"`
	Answers    model.AnswerSet   `json:"answers"`
	Submitting bool              `json:"submitting"`
	Assessment *Assessment       `json:"assessment,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// NewSession converts a collector snapshot.
func NewSession(id string, s collector.Snapshot) Session {
	out := Session{
		ID:         id,
		OwnerID:    s.OwnerID,
		Step:       s.Step,
		Size:       s.Size,
		State:      s.State.String(),
		Question:   s.Question,
		Answers:    s.Answers,
		Submitting: s.Submitting,
	}
	if s.Outcome != nil {
		a := NewAssessment(*s.Outcome)
		out.Assessment = &a
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}
