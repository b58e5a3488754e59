package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrTimestampLabel is returned when a relative timestamp label cannot be parsed.
var ErrTimestampLabel = errors.New("unrecognised timestamp label")

const day = 24 * time.Hour

// ParseRelative resolves labels like "just now", "1 hour ago" or
// "18 minutes ago" against now.
func ParseRelative(label string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "just now" || s == "now" {
		return now, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 3 || fields[2] != "ago" {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampLabel, label)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampLabel, label)
	}
	var unit time.Duration
	switch strings.TrimSuffix(fields[1], "s") {
	case "second", "sec":
		unit = time.Second
	case "minute", "min":
		unit = time.Minute
	case "hour", "hr":
		unit = time.Hour
	case "day":
		unit = day
	case "week":
		unit = 7 * day
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampLabel, label)
	}
	return now.Add(-time.Duration(n) * unit), nil
}

// FormatRelative renders the age d the same way the live pulse labels events.
func FormatRelative(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < day:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/day), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}
