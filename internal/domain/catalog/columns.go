package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// SentinelColumns are non-feature entries a column discovery endpoint may return.
var SentinelColumns = []string{"Timestamp"}

// columnTitles are the short labels used by the flat form.
var columnTitles = map[string]string{
	"FRUITS_VEGGIES":    "Fruit & Vegetable Intake",
	"DAILY_STRESS":      "Daily Stress Level",
	"PLACES_VISITED":    "Places Visited",
	"CORE_CIRCLE":       "Close Support Circle",
	"SUPPORTING_OTHERS": "Helping Others",
	"SOCIAL_NETWORK":    "Social Network Strength",
	"ACHIEVEMENT":       "Sense of Achievement",
	"DONATION":          "Charitable Contribution",
	"BMI_RANGE":         "BMI Range",
	"TODO_COMPLETED":    "Tasks Completed",
	"FLOW":              "Flow State",
	"DAILY_STEPS":       "Daily Steps",
	"LIVE_VISION":       "Life Vision Clarity",
	"SLEEP_HOURS":       "Sleep Hours",
	"LOST_VACATION":     "Vacation Lost",
	"DAILY_SHOUTING":    "Daily Emotional Stress",
	"SUFFICIENT_INCOME": "Financial Satisfaction",
	"PERSONAL_AWARDS":   "Personal Recognition",
	"TIME_FOR_PASSION":  "Time for Passion",
	"WEEKLY_MEDITATION": "Meditation Frequency",
	"AGE":               "Age",
	"GENDER":            "Gender",
}

// StripSentinels drops sentinel column names, keeping order.
func StripSentinels(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		col = strings.TrimSpace(col)
		if col == "" || slices.Contains(SentinelColumns, col) {
			continue
		}
		out = append(out, col)
	}
	return out
}

func sliderChoices() []Choice {
	out := make([]Choice, 0, MaxChoiceValue-MinChoiceValue+1)
	for v := MinChoiceValue; v <= MaxChoiceValue; v++ {
		out = append(out, Choice{Label: fmt.Sprint(v), Value: float64(v)})
	}
	return out
}

// FromColumns builds the flat-form catalog from a discovered column list.
// Sentinels are removed; every column becomes a 0..10 slider except AGE and
// GENDER, which keep their banded choices.
func FromColumns(columns []string) (*Catalog, error) {
	cols := StripSentinels(columns)
	questions := make([]Question, 0, len(cols))
	for _, col := range cols {
		q := Question{ID: col, Title: col, Choices: sliderChoices()}
		if title, ok := columnTitles[col]; ok {
			q.Title = title
		}
		switch col {
		case "AGE":
			q.Choices = ageChoices
		case "GENDER":
			q.Choices = genderChoices
		}
		questions = append(questions, q)
	}
	return New(questions)
}
