// Package timefmt holds the single display rule for timestamps. Every place
// a ticket timestamp is shown (ticket PDF, report PDF, CSV export, search
// results) goes through Format so the three views can never disagree.
package timefmt

import (
	"strings"
	"time"
)

// Layout renders as MM-DD-YYYY - HH:MM.
const Layout = "01-02-2006 - 15:04"

// Format renders a timestamp for display. A zero time renders as the empty
// string rather than a bogus date.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInput parses a caller-supplied timestamp, accepting RFC 3339 and the
// second-less form browsers submit for datetime-local inputs.
func ParseInput(value string) (time.Time, error) {
	text := strings.TrimSpace(value)
	var lastErr error
	for _, layout := range inputLayouts {
		t, err := time.ParseInLocation(layout, text, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
