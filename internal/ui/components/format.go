package components

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCost renders a dollar amount with thousands separators, e.g.
// "$1,234.56".
func FormatCost(usd float64) string {
	return "$" + humanize.CommafWithDigits(usd, 2)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatTokens abbreviates large token counts, e.g. "12.3K", "4.5M".
// Counts below a thousand render with separators as-is.
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return humanize.Comma(n)
	}
}

// FormatRelativeTime renders a timestamp relative to now, e.g.
// "3 minutes ago". Zero times render as a placeholder.
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatTimestamp renders an absolute local timestamp for detail rows.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "---"
	}
	return t.Local().Format("2006-01-02 15:04")
}
