package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/okian/balance/internal/domain/history"
	"github.com/okian/balance/internal/domain/types"
)

func categoryColor(c history.Category) *color.Color {
	switch c {
	case history.Bad:
		return color.New(color.FgRed, color.Bold)
	case history.Average:
		return color.New(color.FgYellow, color.Bold)
	case history.Good:
		return color.New(color.FgGreen, color.Bold)
	case history.Excellent:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.Faint)
	}
}

func renderAssessment(w io.Writer, a types.Assessment) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "Score: %.1f", a.Score)
	_, _ = fmt.Fprintf(w, "  (%s, ", a.Label)
	_, _ = categoryColor(a.Category).Fprint(w, a.Category)
	_, _ = fmt.Fprintln(w, ")")
	if !a.Persisted {
		_, _ = color.New(color.FgYellow).Fprintln(w, "The result could not be saved and will not appear in the history.")
	}
}

func renderHistory(w io.Writer, v history.HistoryView) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	_, _ = cyan.Fprintf(w, "History for %s\n", v.OwnerID)
	if v.Latest == nil {
		_, _ = fmt.Fprintln(w, "No results yet.")
		return
	}

	_, _ = bold.Fprintf(w, "Latest: %.1f ", v.Latest.Score)
	_, _ = categoryColor(v.Category).Fprintln(w, v.Category)
	if v.Comparison != nil {
		c := color.New(color.Faint)
		switch {
		case strings.HasPrefix(*v.Comparison, "Improved"):
			c = color.New(color.FgGreen)
		case strings.HasPrefix(*v.Comparison, "Declined"):
			c = color.New(color.FgRed)
		}
		_, _ = c.Fprintln(w, *v.Comparison)
	}

	if len(v.Factors) > 0 {
		_, _ = bold.Fprintln(w, "\nBalance factors")
		for _, f := range v.Factors {
			_, _ = fmt.Fprintf(w, "  %-18s %g\n", f.Name, f.Value)
		}
	}

	_, _ = bold.Fprintln(w, "\nTrend")
	for _, p := range v.Trend {
		date := "undated"
		if p.At != nil {
			date = p.At.Format(time.DateOnly)
		}
		_, _ = fmt.Fprintf(w, "  %-8s %6.1f  %s\n", p.Label, p.Score, date)
	}
}
