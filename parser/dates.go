package parser

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// outputLayout is the normalized datetime format for review records.
const outputLayout = "2006-01-02 00:00:00 +0000"

// NormalizeDate parses an on-page date string ("March 5, 2024",
// "5 Mar 2024", ...) into the canonical output string and the parsed time.
// When parsing fails the raw string is passed through unchanged so the
// information is represented rather than erased.
func NormalizeDate(raw string) (string, time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw, time.Time{}, false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.Format(outputLayout), day, true
}
