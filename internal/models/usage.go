// Package models defines data structures and domain types.
package models

import "time"

// RecentUsageDisplayLimit is how many recent-activity entries the UI shows
// for a single user at a time. The store decides how many entries it retains
// per record; this only bounds presentation.
const RecentUsageDisplayLimit = 5

// UsageEntry is one logged API call batch. Immutable once recorded.
type UsageEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"inputTokens"`
	OutputTokens int64     `json:"outputTokens"`
	TotalTokens  int64     `json:"totalTokens"`
	CostUSD      float64   `json:"costUsd"`
	Calls        int64     `json:"calls"`
}

// UserUsageRecord is the persisted cumulative usage summary for one user,
// with a bounded trailing log of recent entries (most recent first).
//
// TotalTokens is expected to equal TotalInputTokens + TotalOutputTokens but
// that invariant is owned by whatever writes the records; readers here take
// the fields at face value.
type UserUsageRecord struct {
	UserID            string       `json:"userId"`
	TotalCalls        int64        `json:"totalCalls"`
	TotalInputTokens  int64        `json:"totalInputTokens"`
	TotalOutputTokens int64        `json:"totalOutputTokens"`
	TotalTokens       int64        `json:"totalTokens"`
	TotalCostUSD      float64      `json:"totalCostUsd"`
	LastUpdated       time.Time    `json:"lastUpdated"`
	CreatedAt         time.Time    `json:"createdAt"`
	RecentUsage       []UsageEntry `json:"recentUsage"`
}

// RecentForDisplay returns at most RecentUsageDisplayLimit entries.
func (r *UserUsageRecord) RecentForDisplay() []UsageEntry {
	if len(r.RecentUsage) <= RecentUsageDisplayLimit {
		return r.RecentUsage
	}
	return r.RecentUsage[:RecentUsageDisplayLimit]
}
