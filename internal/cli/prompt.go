package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/okian/balance/internal/domain/catalog"
)

// Action is what the respondent chose to do on a question.
type Action int

const (
	ActionSelect Action = iota
	ActionSkip
	ActionBack
)

// Reply is the respondent's answer to one prompt. Value is set for ActionSelect.
type Reply struct {
	Action Action
	Value  float64
}

// Prompter asks the respondent questions.
type Prompter interface {
	// Ask shows question step+1 of size. current is the earlier selection, if any.
	Ask(ctx context.Context, q catalog.Question, step, size int, current *float64, allowBack bool) (Reply, error)
	Confirm(ctx context.Context, question string) (bool, error)
}

const (
	optionSkip = "skip"
	optionBack = "back"
)

// huhPrompter renders prompts with huh forms.
type huhPrompter struct {
	in  io.Reader
	out io.Writer
}

func newHuhPrompter(in io.Reader, out io.Writer) *huhPrompter {
	return &huhPrompter{in: in, out: out}
}

func (p *huhPrompter) Ask(ctx context.Context, q catalog.Question, step, size int, current *float64, allowBack bool) (Reply, error) {
	opts := make([]huh.Option[string], 0, len(q.Choices)+2)
	for _, c := range q.Choices {
		opts = append(opts, huh.NewOption(c.Label, formatValue(c.Value)))
	}
	opts = append(opts, huh.NewOption("Skip", optionSkip))
	if allowBack && step > 0 {
		opts = append(opts, huh.NewOption("Back", optionBack))
	}

	var picked string
	if current != nil {
		picked = formatValue(*current)
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("%d/%d  %s", step+1, size, q.Title)).
				Description(q.Prompt).
				Options(opts...).
				Value(&picked),
		),
	).WithInput(p.in).WithOutput(p.out).RunWithContext(ctx)
	if err != nil {
		return Reply{}, err
	}

	switch picked {
	case optionSkip:
		return Reply{Action: ActionSkip}, nil
	case optionBack:
		return Reply{Action: ActionBack}, nil
	}
	v, err := strconv.ParseFloat(picked, 64)
	if err != nil {
		return Reply{}, fmt.Errorf("unexpected option %q: %w", picked, err)
	}
	return Reply{Action: ActionSelect, Value: v}, nil
}

func (p *huhPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithInput(p.in).WithOutput(p.out).RunWithContext(ctx)
	return ok, err
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
