package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	service "github.com/okian/balance/internal/app"
	"github.com/okian/balance/internal/domain/collector"
	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/internal/domain/types"
)

func newTakeCommand(rt *runtime) *cobra.Command {
	var (
		owner        string
		answers      string
		submissionID string
	)
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Answer the questionnaire and get a score",
		Long: `take walks through the questionnaire one question at a time. Any question
may be skipped. The answers are scored once the last question is passed.

Without a terminal, pass every answer up front with --answers.`,
		Example: `  survey take --owner alice
  survey take --owner alice --answers SLEEP_HOURS=8,DAILY_STRESS=2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, stop, err := rt.start(ctx)
			if err != nil {
				return err
			}
			defer stop()

			out := cmd.OutOrStdout()
			if answers != "" {
				set, err := parseAnswers(answers)
				if err != nil {
					return err
				}
				a, err := svc.SubmitForm(ctx, owner, set, submissionID)
				if err != nil && !errors.Is(err, submission.ErrPersistence) {
					return err
				}
				renderAssessment(out, a)
				return nil
			}

			p := rt.prompter
			if p == nil {
				if !isTerminal(cmd.InOrStdin()) {
					return errors.New("take needs an interactive terminal; pass --answers instead")
				}
				p = newHuhPrompter(cmd.InOrStdin(), out)
			}
			return runSession(ctx, svc, p, owner, out)
		},
	}
	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Respondent id the result is stored under")
	cmd.Flags().StringVar(&answers, "answers", "", "Non-interactive answers as id=value pairs, comma separated")
	cmd.Flags().StringVar(&submissionID, "submission-id", "", "Idempotency key for --answers")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// runSession drives one paginated session to completion with p.
func runSession(ctx context.Context, svc *service.Service, p Prompter, owner string, out io.Writer) error {
	sess, err := svc.StartSession(ctx, owner)
	if err != nil {
		return err
	}
	warn := color.New(color.FgYellow)
	allowBack := svc.AllowRevisit()

	for sess.State != collector.Complete.String() {
		var current *float64
		if v, ok := sess.Answers[sess.Question.ID]; ok {
			current = &v
		}
		reply, err := p.Ask(ctx, *sess.Question, sess.Step, sess.Size, current, allowBack)
		if err != nil {
			return err
		}

		switch reply.Action {
		case ActionBack:
			if sess, err = svc.Back(ctx, sess.ID); err != nil {
				if sess.ID == "" {
					return err
				}
				_, _ = warn.Fprintln(out, err)
			}
			continue
		case ActionSelect:
			if sess, err = svc.Answer(ctx, sess.ID, reply.Value); err != nil {
				if sess.ID == "" {
					return err
				}
				_, _ = warn.Fprintln(out, err)
				continue
			}
		}
		sess, err = svc.Advance(ctx, sess.ID)
		if err != nil {
			sess, err = retrySubmission(ctx, svc, p, sess, err, out)
			if err != nil {
				return err
			}
		}
	}

	if sess.Assessment == nil {
		return errors.New("session completed without a score")
	}
	renderAssessment(out, *sess.Assessment)
	return nil
}

// retrySubmission offers to resubmit until scoring succeeds or the
// respondent gives up. A persistence failure still has a score and is not retried.
func retrySubmission(ctx context.Context, svc *service.Service, p Prompter, sess types.Session, err error, out io.Writer) (types.Session, error) {
	red := color.New(color.FgRed)
	for err != nil {
		if errors.Is(err, submission.ErrPersistence) {
			return sess, nil
		}
		if !errors.Is(err, submission.ErrSubmission) {
			return sess, err
		}
		_, _ = red.Fprintln(out, err)
		again, perr := p.Confirm(ctx, "Scoring failed. Try again?")
		if perr != nil {
			return sess, perr
		}
		if !again {
			return sess, err
		}
		sess, err = svc.Retry(ctx, sess.ID)
	}
	return sess, nil
}

// parseAnswers reads "id=value,id=value".
func parseAnswers(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("answer %q: want id=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("answer %q: %w", pair, err)
		}
		out[strings.TrimSpace(id)] = v
	}
	return out, nil
}
