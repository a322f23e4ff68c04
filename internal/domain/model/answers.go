// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"maps"
)

// Answer is the tagged value of one question: either unanswered or numeric.
// The zero value is unanswered, so 0 is never mistaken for "no answer".
type Answer struct {
	value    float64
	answered bool
}

// Unanswered returns the empty answer.
func Unanswered() Answer { return Answer{} }

// Numeric returns an answer holding v.
func Numeric(v float64) Answer { return Answer{value: v, answered: true} }

// Value returns the numeric value and whether the question was answered.
func (a Answer) Value() (float64, bool) { return a.value, a.answered }

// IsAnswered reports whether the answer holds a value.
func (a Answer) IsAnswered() bool { return a.answered }

// Or returns the value, or def when unanswered.
func (a Answer) Or(def float64) float64 {
	if !a.answered {
		return def
	}
	return a.value
}

// MarshalJSON renders unanswered as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.answered {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON accepts null or a number.
func (a *Answer) UnmarshalJSON(b []byte) error {
	var v *float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*a = Unanswered()
		return nil
	}
	*a = Numeric(*v)
	return nil
}

// AnswerSet maps question ids to selected values; at most one value per id.
type AnswerSet map[string]float64

// Set records v for id, replacing any earlier selection.
func (s AnswerSet) Set(id string, v float64) { s[id] = v }

// Get returns the tagged answer for id.
func (s AnswerSet) Get(id string) Answer {
	v, ok := s[id]
	if !ok {
		return Unanswered()
	}
	return Numeric(v)
}

// Clone returns an independent snapshot.
func (s AnswerSet) Clone() AnswerSet {
	if s == nil {
		return AnswerSet{}
	}
	return maps.Clone(s)
}
