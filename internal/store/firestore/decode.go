package firestore

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
)

// Firestore typed-value decoding. Every helper applies the fetch-boundary
// defaults from the data model: numerics default to 0, timestamps to the
// current time. The aggregation engine relies on never seeing a
// partially-typed record.

// documentID returns the last path segment of a document resource name,
// e.g. "projects/p/databases/(default)/documents/users/abc" -> "abc".
func documentID(doc gjson.Result) string {
	name := doc.Get("name").String()
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func intField(fields gjson.Result, name string) int64 {
	v := fields.Get(name)
	if iv := v.Get("integerValue"); iv.Exists() {
		return iv.Int()
	}
	if dv := v.Get("doubleValue"); dv.Exists() {
		return int64(dv.Float())
	}
	return 0
}

func floatField(fields gjson.Result, name string) float64 {
	v := fields.Get(name)
	if dv := v.Get("doubleValue"); dv.Exists() {
		return dv.Float()
	}
	if iv := v.Get("integerValue"); iv.Exists() {
		return float64(iv.Int())
	}
	return 0
}

func stringField(fields gjson.Result, name string) string {
	return fields.Get(name + ".stringValue").String()
}

func boolField(fields gjson.Result, name string) bool {
	return fields.Get(name + ".booleanValue").Bool()
}

// timeField parses a timestampValue, accepting a plain string value as a
// fallback (user profiles store createdAt as a string). Absent or
// unparseable values default to now.
func timeField(fields gjson.Result, name string) time.Time {
	v := fields.Get(name)
	raw := v.Get("timestampValue").String()
	if raw == "" {
		raw = v.Get("stringValue").String()
	}
	if raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

// decodeUsageEntry decodes one recent-activity entry from a mapValue.
func decodeUsageEntry(entryFields gjson.Result) models.UsageEntry {
	entry := models.UsageEntry{
		Timestamp:    timeField(entryFields, "timestamp"),
		Model:        stringField(entryFields, "model"),
		InputTokens:  intField(entryFields, "inputTokens"),
		OutputTokens: intField(entryFields, "outputTokens"),
		TotalTokens:  intField(entryFields, "totalTokens"),
		CostUSD:      floatField(entryFields, "costUsd"),
		Calls:        intField(entryFields, "calls"),
	}
	// A recorded batch is at least one call.
	if entry.Calls == 0 {
		entry.Calls = 1
	}
	return entry
}

// decodeUsageRecord decodes one usage document.
func decodeUsageRecord(doc gjson.Result) models.UserUsageRecord {
	fields := doc.Get("fields")

	record := models.UserUsageRecord{
		UserID:            stringField(fields, "userId"),
		TotalCalls:        intField(fields, "totalCalls"),
		TotalInputTokens:  intField(fields, "totalInputTokens"),
		TotalOutputTokens: intField(fields, "totalOutputTokens"),
		TotalTokens:       intField(fields, "totalTokens"),
		TotalCostUSD:      floatField(fields, "totalCostUsd"),
		LastUpdated:       timeField(fields, "lastUpdated"),
		CreatedAt:         timeField(fields, "createdAt"),
	}
	if record.UserID == "" {
		record.UserID = documentID(doc)
	}

	for _, item := range fields.Get("recentUsage.arrayValue.values").Array() {
		record.RecentUsage = append(record.RecentUsage, decodeUsageEntry(item.Get("mapValue.fields")))
	}

	return record
}

// decodeAppUser decodes one user profile document. The document key is the
// user identifier.
func decodeAppUser(doc gjson.Result) models.AppUser {
	fields := doc.Get("fields")
	return models.AppUser{
		UserID:     documentID(doc),
		Email:      stringField(fields, "email"),
		Username:   stringField(fields, "username"),
		IsApproved: boolField(fields, "isApproved"),
		CreatedAt:  timeField(fields, "createdAt"),
	}
}
