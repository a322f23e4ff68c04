// Package history derives trend, comparison and category data from one
// owner's result records. Nothing here is persisted; every value is
// recomputed from the records passed in.
package history

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/okian/balance/internal/domain/model"
)

// Category buckets a score.
type Category string

// Categories. Unscored means no score has been recorded and is distinct from Bad.
const (
	Unscored  Category = "Unscored"
	Bad       Category = "Bad"
	Average   Category = "Average"
	Good      Category = "Good"
	Excellent Category = "Excellent"
)

const (
	badBelow     = 40
	averageBelow = 60
	goodBelow    = 80
)

// TrendPoint is one entry of a score series. Index is 1-based.
type TrendPoint struct {
	Index int        `json:"index"`
	Score float64    `json:"score"`
	At    *time.Time `json:"at,omitempty"`
	Label string     `json:"label"`
}

// Factor is one answer of the latest record shown next to the score.
type Factor struct {
	Name       string  `json:"name"`
	QuestionID string  `json:"question_id"`
	Value      float64 `json:"value"`
}

// HistoryView bundles everything derived for one owner.
type HistoryView struct {
	OwnerID    string              `json:"owner_id"`
	Trend      []TrendPoint        `json:"trend"`
	DatedTrend []TrendPoint        `json:"dated_trend"`
	Latest     *model.ResultRecord `json:"latest,omitempty"`
	Previous   *model.ResultRecord `json:"previous,omitempty"`
	Comparison *string             `json:"comparison,omitempty"`
	Category   Category            `json:"category"`
	Factors    []Factor            `json:"factors"`
}

var balanceFactors = []Factor{ //nolint:gochecknoglobals // fixed factor layout
	{Name: "Stress", QuestionID: "DAILY_STRESS"},
	{Name: "Sleep", QuestionID: "SLEEP_HOURS"},
	{Name: "Social", QuestionID: "SOCIAL_NETWORK"},
}

// Aggregator derives history for a single owner. Records of other owners are
// always dropped, even if the store already filtered them.
type Aggregator struct {
	ownerID string
}

// New creates an aggregator for ownerID.
func New(ownerID string) *Aggregator {
	return &Aggregator{ownerID: ownerID}
}

// OwnerID returns the owner this aggregator serves.
func (a *Aggregator) OwnerID() string { return a.ownerID }

func (a *Aggregator) own(records []model.ResultRecord) []model.ResultRecord {
	out := make([]model.ResultRecord, 0, len(records))
	for _, r := range records {
		if r.OwnerID == a.ownerID {
			out = append(out, r)
		}
	}
	return out
}

// byTime orders timestamped records by CreatedAt and puts untimestamped
// records after them. Used with a stable sort, ties keep input order.
func byTime(desc bool) func(x, y model.ResultRecord) int {
	return func(x, y model.ResultRecord) int {
		switch {
		case x.CreatedAt == nil && y.CreatedAt == nil:
			return 0
		case x.CreatedAt == nil:
			return 1
		case y.CreatedAt == nil:
			return -1
		}
		c := x.CreatedAt.Compare(*y.CreatedAt)
		if desc {
			return -c
		}
		return c
	}
}

// TrendSeries returns one point per record in ascending time order.
func (a *Aggregator) TrendSeries(records []model.ResultRecord) []TrendPoint {
	own := a.own(records)
	slices.SortStableFunc(own, byTime(false))

	points := make([]TrendPoint, len(own))
	for i, r := range own {
		points[i] = TrendPoint{
			Index: i + 1,
			Score: r.Score,
			At:    r.CreatedAt,
			Label: fmt.Sprintf("Test %d", i+1),
		}
	}
	return points
}

// DatedTrend is TrendSeries restricted to timestamped records, labelled by date.
func (a *Aggregator) DatedTrend(records []model.ResultRecord) []TrendPoint {
	dated := make([]model.ResultRecord, 0, len(records))
	for _, r := range a.own(records) {
		if r.Timestamped() {
			dated = append(dated, r)
		}
	}
	slices.SortStableFunc(dated, byTime(false))

	points := make([]TrendPoint, len(dated))
	for i, r := range dated {
		points[i] = TrendPoint{
			Index: i + 1,
			Score: r.Score,
			At:    r.CreatedAt,
			Label: r.CreatedAt.Format(time.DateOnly),
		}
	}
	return points
}

// LatestAndPrevious returns the newest record and the one before it. Either
// may be nil.
func (a *Aggregator) LatestAndPrevious(records []model.ResultRecord) (latest, previous *model.ResultRecord) {
	own := a.own(records)
	slices.SortStableFunc(own, byTime(true))

	if len(own) > 0 {
		latest = &own[0]
	}
	if len(own) > 1 {
		previous = &own[1]
	}
	return latest, previous
}

// ComparisonLabel describes the change from previous to latest. It returns
// false when there is nothing to compare.
func ComparisonLabel(latest, previous *model.ResultRecord) (string, bool) {
	if latest == nil || previous == nil {
		return "", false
	}
	diff := latest.Score - previous.Score
	switch cmp.Compare(diff, 0) {
	case 1:
		return fmt.Sprintf("Improved by %.1f%%", diff), true
	case -1:
		return fmt.Sprintf("Declined by %.1f%%", -diff), true
	default:
		return "No change from last time", true
	}
}

// CategoryBucket maps a score to its category. A nil score is Unscored.
func CategoryBucket(score *float64) Category {
	if score == nil {
		return Unscored
	}
	switch s := *score; {
	case s < badBelow:
		return Bad
	case s < averageBelow:
		return Average
	case s < goodBelow:
		return Good
	default:
		return Excellent
	}
}

// BalanceFactors reads the stress, sleep and social answers of latest.
// Unanswered questions count as 0; a nil record yields no factors.
func BalanceFactors(latest *model.ResultRecord) []Factor {
	if latest == nil {
		return nil
	}
	out := make([]Factor, len(balanceFactors))
	for i, f := range balanceFactors {
		f.Value = latest.Answers.Get(f.QuestionID).Or(0)
		out[i] = f
	}
	return out
}

// View derives the full history view from records.
func (a *Aggregator) View(records []model.ResultRecord) HistoryView {
	latest, previous := a.LatestAndPrevious(records)

	v := HistoryView{
		OwnerID:    a.ownerID,
		Trend:      a.TrendSeries(records),
		DatedTrend: a.DatedTrend(records),
		Latest:     latest,
		Previous:   previous,
		Category:   Unscored,
		Factors:    BalanceFactors(latest),
	}
	if label, ok := ComparisonLabel(latest, previous); ok {
		v.Comparison = &label
	}
	if latest != nil {
		score := latest.Score
		v.Category = CategoryBucket(&score)
	}
	return v
}
