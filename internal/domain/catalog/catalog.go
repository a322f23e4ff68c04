// Package catalog holds the ordered, immutable list of survey questions.
//
// Catalog order defines feature-vector slot order, so a catalog is built once
// at process start and never mutated afterwards.
package catalog

import (
	"fmt"
	"strings"
)

// Choice values are bounded to the scorer's 0..10 input domain.
const (
	MinChoiceValue = 0
	MaxChoiceValue = 10
)

// Choice is one selectable answer of a question.
type Choice struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Question describes one survey question. ID doubles as the feature column name.
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Prompt  string   `json:"prompt,omitempty" yaml:"prompt"`
	Choices []Choice `json:"choices" yaml:"choices"`
}

// HasChoice reports whether v is one of the question's choice values.
func (q Question) HasChoice(v float64) bool {
	for _, c := range q.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// Values returns the allowed choice values in declaration order.
func (q Question) Values() []float64 {
	out := make([]float64, len(q.Choices))
	for i, c := range q.Choices {
		out[i] = c.Value
	}
	return out
}

// Catalog is an ordered set of questions with unique ids.
type Catalog struct {
	questions []Question
	index     map[string]int
}

// New validates questions and builds a Catalog. The input slice is copied.
func New(questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidCatalog)
	}

	c := &Catalog{
		questions: make([]Question, len(questions)),
		index:     make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: question %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, id)
		}
		if len(q.Choices) == 0 {
			return nil, fmt.Errorf("%w: question %q has no choices", ErrInvalidCatalog, id)
		}
		choices := make([]Choice, len(q.Choices))
		for j, ch := range q.Choices {
			if ch.Value < MinChoiceValue || ch.Value > MaxChoiceValue {
				return nil, fmt.Errorf("%w: question %q choice %v outside [%d,%d]",
					ErrInvalidCatalog, id, ch.Value, MinChoiceValue, MaxChoiceValue)
			}
			choices[j] = ch
		}
		q.ID = id
		q.Choices = choices
		c.questions[i] = q
		c.index[id] = i
	}
	return c, nil
}

// MustNew is New that panics; meant for package-level catalogs.
func MustNew(questions []Question) *Catalog {
	c, err := New(questions)
	if err != nil {
		panic(err)
	}
	return c
}

// Size returns the number of questions.
func (c *Catalog) Size() int { return len(c.questions) }

// At returns the question at position i.
func (c *Catalog) At(i int) (Question, error) {
	if i < 0 || i >= len(c.questions) {
		return Question{}, fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(c.questions))
	}
	return c.questions[i], nil
}

// IndexOf returns the position of the question with the given id.
func (c *Catalog) IndexOf(id string) (int, error) {
	i, ok := c.index[id]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return i, nil
}

// HasChoice reports whether v is an allowed value of the question at i.
func (c *Catalog) HasChoice(i int, v float64) bool {
	if i < 0 || i >= len(c.questions) {
		return false
	}
	return c.questions[i].HasChoice(v)
}

// IDs returns question ids in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.questions))
	for i, q := range c.questions {
		out[i] = q.ID
	}
	return out
}

// Questions returns a copy of the questions in catalog order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}
