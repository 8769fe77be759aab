// Package usage implements the aggregation engine: pure functions that
// reshape per-user usage records into the derived views the dashboard
// renders. Every function here is a pure, idempotent function of its input
// (plus, for the date rollup, a caller-supplied clock reading); none of them
// can fail on well-typed input.
//
// The per-model and per-date rollups read only the bounded recent-activity
// window embedded in each record, not the cumulative totals. That is a
// deliberate scope limit inherited from the data model: the rollups reflect
// recently retained activity, not full history.
package usage

import (
	"sort"
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
)

// DateWindowDays is the trailing window applied by ByDate.
const DateWindowDays = 30

// DefaultTopUsers is the row count used by top-user views.
const DefaultTopUsers = 10

// Aggregated is a stateless snapshot of usage summed across all users.
type Aggregated struct {
	TotalCalls         int64
	TotalInputTokens   int64
	TotalOutputTokens  int64
	TotalTokens        int64
	TotalCostUSD       float64
	UserCount          int
	AverageCostPerUser float64
	AverageCostPerCall float64
}

// ModelUsage is the rollup of recent-activity entries for one model.
type ModelUsage struct {
	Model        string
	Calls        int64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// DateUsage is the rollup of recent-activity entries for one UTC calendar
// date, formatted YYYY-MM-DD.
type DateUsage struct {
	Date    string
	Calls   int64
	CostUSD float64
	Tokens  int64
}

// Aggregate sums the cumulative fields of every record in a single pass.
// Averages are 0 when their denominator is 0; empty input yields the zero
// value with UserCount 0.
func Aggregate(records []models.UserUsageRecord) Aggregated {
	agg := Aggregated{UserCount: len(records)}

	for i := range records {
		r := &records[i]
		agg.TotalCalls += r.TotalCalls
		agg.TotalInputTokens += r.TotalInputTokens
		agg.TotalOutputTokens += r.TotalOutputTokens
		agg.TotalTokens += r.TotalTokens
		agg.TotalCostUSD += r.TotalCostUSD
	}

	if agg.UserCount > 0 {
		agg.AverageCostPerUser = agg.TotalCostUSD / float64(agg.UserCount)
	}
	if agg.TotalCalls > 0 {
		agg.AverageCostPerCall = agg.TotalCostUSD / float64(agg.TotalCalls)
	}

	return agg
}

// ByModel accumulates every recent-activity entry of every record into one
// rollup per distinct model name, sorted by cost descending. The sort is
// stable, so models with equal cost keep first-seen order. Models without
// any observed entry never appear.
func ByModel(records []models.UserUsageRecord) []ModelUsage {
	index := make(map[string]int)
	var rollups []ModelUsage

	for i := range records {
		for _, entry := range records[i].RecentUsage {
			idx, ok := index[entry.Model]
			if !ok {
				idx = len(rollups)
				index[entry.Model] = idx
				rollups = append(rollups, ModelUsage{Model: entry.Model})
			}
			m := &rollups[idx]
			m.Calls += entry.Calls
			m.InputTokens += entry.InputTokens
			m.OutputTokens += entry.OutputTokens
			m.TotalTokens += entry.TotalTokens
			m.CostUSD += entry.CostUSD
		}
	}

	sort.SliceStable(rollups, func(a, b int) bool {
		return rollups[a].CostUSD > rollups[b].CostUSD
	})

	return rollups
}

// ByDate buckets recent-activity entries by the UTC calendar date of their
// timestamp, keeping only entries within the trailing DateWindowDays window
// measured from now (inclusive lower bound, full-precision comparison).
// Output is sorted ascending by date string; dates with no qualifying
// entries are omitted, so consumers must not assume a dense daily series.
func ByDate(records []models.UserUsageRecord, now time.Time) []DateUsage {
	cutoff := now.AddDate(0, 0, -DateWindowDays)

	index := make(map[string]int)
	var rollups []DateUsage

	for i := range records {
		for _, entry := range records[i].RecentUsage {
			if entry.Timestamp.Before(cutoff) {
				continue
			}
			date := entry.Timestamp.UTC().Format("2006-01-02")

			idx, ok := index[date]
			if !ok {
				idx = len(rollups)
				index[date] = idx
				rollups = append(rollups, DateUsage{Date: date})
			}
			d := &rollups[idx]
			d.Calls += entry.Calls
			d.CostUSD += entry.CostUSD
			d.Tokens += entry.TotalTokens
		}
	}

	// Lexicographic order on YYYY-MM-DD is chronological order.
	sort.Slice(rollups, func(a, b int) bool {
		return rollups[a].Date < rollups[b].Date
	})

	return rollups
}

// TopUsersByCost returns the n highest-cost records, most expensive first.
// The input slice is left untouched; ordering among equal costs is
// unspecified.
func TopUsersByCost(records []models.UserUsageRecord, n int) []models.UserUsageRecord {
	if n <= 0 {
		return nil
	}

	sorted := make([]models.UserUsageRecord, len(records))
	copy(sorted, records)

	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].TotalCostUSD > sorted[b].TotalCostUSD
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
