package firestore

import (
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestDecodeUsageRecord_Defaults(t *testing.T) {
	// Only the document name is present: every numeric defaults to 0,
	// timestamps to now, and the ID falls back to the document key.
	doc := gjson.Parse(`{"name": "projects/p/databases/(default)/documents/usage/fallback-id", "fields": {}}`)

	before := time.Now()
	record := decodeUsageRecord(doc)
	after := time.Now()

	if record.UserID != "fallback-id" {
		t.Errorf("UserID = %q, want fallback to document key", record.UserID)
	}
	if record.TotalCalls != 0 || record.TotalTokens != 0 || record.TotalCostUSD != 0 {
		t.Errorf("numeric defaults not applied: %+v", record)
	}
	if record.LastUpdated.Before(before) || record.LastUpdated.After(after) {
		t.Errorf("LastUpdated = %v, want defaulted to now", record.LastUpdated)
	}
	if len(record.RecentUsage) != 0 {
		t.Errorf("RecentUsage = %+v, want empty", record.RecentUsage)
	}
}

func TestDecodeUsageEntry_CallsDefaultsToOne(t *testing.T) {
	fields := gjson.Parse(`{
		"model": {"stringValue": "gpt-4"},
		"costUsd": {"doubleValue": 0.1}
	}`)

	entry := decodeUsageEntry(fields)
	if entry.Calls != 1 {
		t.Errorf("Calls = %d, want default 1", entry.Calls)
	}
	if entry.Model != "gpt-4" || entry.CostUSD != 0.1 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestIntField_AcceptsDoubleValue(t *testing.T) {
	// Some writers store counters as doubles.
	fields := gjson.Parse(`{"totalCalls": {"doubleValue": 7.0}}`)
	if got := intField(fields, "totalCalls"); got != 7 {
		t.Errorf("intField() = %d, want 7", got)
	}
}

func TestFloatField_AcceptsIntegerValue(t *testing.T) {
	fields := gjson.Parse(`{"totalCostUsd": {"integerValue": "3"}}`)
	if got := floatField(fields, "totalCostUsd"); got != 3.0 {
		t.Errorf("floatField() = %v, want 3.0", got)
	}
}

func TestTimeField(t *testing.T) {
	tests := []struct {
		name   string
		fields string
		want   time.Time
	}{
		{
			name:   "TimestampValue",
			fields: `{"ts": {"timestampValue": "2026-08-01T10:30:00Z"}}`,
			want:   time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "StringFallback",
			fields: `{"ts": {"stringValue": "2026-08-01T10:30:00Z"}}`,
			want:   time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeField(gjson.Parse(tt.fields), "ts")
			if !got.Equal(tt.want) {
				t.Errorf("timeField() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("AbsentDefaultsToNow", func(t *testing.T) {
		before := time.Now()
		got := timeField(gjson.Parse(`{}`), "ts")
		if got.Before(before) || got.After(time.Now()) {
			t.Errorf("timeField() = %v, want now", got)
		}
	})
}

func TestDocumentID(t *testing.T) {
	doc := gjson.Parse(`{"name": "projects/p/databases/(default)/documents/users/abc"}`)
	if got := documentID(doc); got != "abc" {
		t.Errorf("documentID() = %q, want abc", got)
	}
}
