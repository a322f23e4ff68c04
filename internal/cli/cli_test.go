package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/history"
)

func init() {
	color.NoColor = true
}

const testCatalogYAML = `
questions:
  - id: q1
    title: First
    choices:
      - {label: Low, value: 2}
      - {label: Mid, value: 5}
      - {label: High, value: 8}
      - {label: Max, value: 10}
  - id: q2
    title: Second
    choices:
      - {label: Low, value: 2}
      - {label: Max, value: 10}
`

// writeConfig prepares a config file backed by a sqlite database in a temp dir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catPath, []byte(testCatalogYAML), 0o600))

	cfg := "store_driver: sqlite\n" +
		"store_dsn: " + filepath.Join(dir, "balance.db") + "\n" +
		"catalog_path: " + catPath + "\n" + extra
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func run(t *testing.T, cfgPath string, stdin string, args []string, opts ...Option) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand(opts...)
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

type scriptedPrompter struct {
	replies  []Reply
	confirms []bool
	asked    []string
}

func (p *scriptedPrompter) Ask(_ context.Context, q catalog.Question, _, _ int, _ *float64, _ bool) (Reply, error) {
	p.asked = append(p.asked, q.ID)
	if len(p.replies) == 0 {
		return Reply{}, errors.New("script exhausted")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r, nil
}

func (p *scriptedPrompter) Confirm(context.Context, string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, nil
	}
	ok := p.confirms[0]
	p.confirms = p.confirms[1:]
	return ok, nil
}

func TestTakeWithAnswersThenHistory(t *testing.T) {
	cfgPath := writeConfig(t, "")

	out, _, err := run(t, cfgPath, "", []string{"take", "--owner", "alice", "--answers", "q1=10, q2=10"})
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 100.0")
	assert.Contains(t, out, "Excellent")

	out, _, err = run(t, cfgPath, "", []string{"take", "--owner", "alice", "--answers", "q1=5,q2=2"})
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 35.0")

	out, _, err = run(t, cfgPath, "", []string{"history", "--owner", "alice"})
	require.NoError(t, err)
	assert.Contains(t, out, "History for alice")
	assert.Contains(t, out, "Latest: 35.0 Bad")
	assert.Contains(t, out, "Declined by 65.0%")
	assert.Contains(t, out, "Test 1")
	assert.Contains(t, out, "Test 2")

	out, _, err = run(t, cfgPath, "", []string{"history", "--owner", "alice", "--json"})
	require.NoError(t, err)
	var view history.HistoryView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Trend, 2)
	assert.Equal(t, history.Bad, view.Category)
}

func TestHistoryForUnknownOwner(t *testing.T) {
	out, _, err := run(t, writeConfig(t, ""), "", []string{"history", "--owner", "nobody"})
	require.NoError(t, err)
	assert.Contains(t, out, "No results yet.")
}

func TestTakeInteractive(t *testing.T) {
	p := &scriptedPrompter{replies: []Reply{
		{Action: ActionSelect, Value: 3}, // not a choice, asked again
		{Action: ActionSelect, Value: 10},
		{Action: ActionSkip},
	}}

	out, _, err := run(t, writeConfig(t, ""), "", []string{"take", "--owner", "bob"}, WithPrompter(p))
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q1", "q2"}, p.asked)
	assert.Contains(t, out, "invalid choice")
	assert.Contains(t, out, "Score: 50.0")
	assert.Contains(t, out, "Average")
}

func TestTakeInteractiveBack(t *testing.T) {
	p := &scriptedPrompter{replies: []Reply{
		{Action: ActionSelect, Value: 2},
		{Action: ActionBack},
		{Action: ActionSelect, Value: 10},
		{Action: ActionSelect, Value: 10},
	}}

	out, _, err := run(t, writeConfig(t, "allow_revisit: true\n"), "", []string{"take", "--owner", "bob"}, WithPrompter(p))
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q1", "q2"}, p.asked)
	assert.Contains(t, out, "Score: 100.0")
}

func TestTakeNeedsTerminal(t *testing.T) {
	_, _, err := run(t, writeConfig(t, ""), "", []string{"take", "--owner", "bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestTakeRequiresOwner(t *testing.T) {
	_, _, err := run(t, writeConfig(t, ""), "", []string{"take", "--answers", "q1=2"})
	require.Error(t, err)
}

func TestTakeRejectsUnknownQuestion(t *testing.T) {
	_, _, err := run(t, writeConfig(t, ""), "", []string{"take", "--owner", "bob", "--answers", "q9=2"})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestBatchFiles(t *testing.T) {
	cfgPath := writeConfig(t, "")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	outPath := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("q2,q1,WORK_LIFE_BALANCE_SCORE\n10,10,700\n2,x,500\n"), 0o600))

	_, stderr, err := run(t, cfgPath, "", []string{"batch", "--input", in, "--out", outPath})
	require.NoError(t, err)
	assert.Contains(t, stderr, "2 rows: 1 scored, 1 failed")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "q2,q1,score,label,category,error", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "10,10,100,Good,Excellent"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2,x,,,,"), lines[2])
}

func TestBatchStdin(t *testing.T) {
	out, _, err := run(t, writeConfig(t, ""), "q1,q2,Extra\n10,2,keep\n",
		[]string{"batch", "--drop-target", "Extra"})
	require.NoError(t, err)
	assert.Equal(t, "q1,q2,score,label,category,error\n10,2,60,Average,Good,\n", out)
}

func TestParseAnswers(t *testing.T) {
	got, err := parseAnswers(" q1=2, q2 = 10 ,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"q1": 2, "q2": 10}, got)

	_, err = parseAnswers("q1")
	assert.Error(t, err)
	_, err = parseAnswers("q1=high")
	assert.Error(t, err)
}
