package model

import "time"

// FeatureVector is the ordered numeric input of the scorer, one slot per catalog question.
type FeatureVector []float64

// ScoreResult is what a scorer returns for one feature vector.
type ScoreResult struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// NewRecord is the write side of a ResultRecord; the store assigns ID and CreatedAt.
type NewRecord struct {
	OwnerID string
	Answers AnswerSet
	Score   float64
	Label   string
}

// ResultRecord is one persisted, scored submission. Records are never mutated.
// CreatedAt is nil for rows written without a timestamp (imports, legacy data).
type ResultRecord struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Answers   AnswerSet  `json:"answers"`
	Score     float64    `json:"score"`
	Label     string     `json:"label"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Timestamped reports whether the record carries a creation time.
func (r ResultRecord) Timestamped() bool { return r.CreatedAt != nil }
