package util

import (
	"strconv"
	"time"
)

// unix values above this are taken as milliseconds
const millisThreshold = 1e11

// ParseTime tries RFC3339, RFC3339Nano, unix seconds and unix milliseconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		if ts > millisThreshold {
			return time.UnixMilli(ts), true
		}
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseRange parses a from/to pair. Missing ends default to [now-span, now]
// and reversed bounds are swapped.
func ParseRange(from, to string, now time.Time, span time.Duration) (time.Time, time.Time) {
	t := ParseTimeDefault(to, now)
	f := ParseTimeDefault(from, t.Add(-span))
	if f.After(t) {
		f, t = t, f
	}
	return f, t
}
