package domain

import (
	"fmt"
	"strings"
	"time"
)

// validEndLayout is the date/time part of "15.03.2025 18:30 UTC"; the zone
// abbreviation is resolved separately through zoneOffsets.
const validEndLayout = "2.1.2006 15:04"

// zoneOffsets lists the abbreviations ARSO feeds use, in seconds east of UTC.
// time.Parse would accept any abbreviation and silently assume UTC.
var zoneOffsets = map[string]int{
	"UTC":  0,
	"GMT":  0,
	"CET":  1 * 60 * 60,
	"CEST": 2 * 60 * 60,
}

// ParseValidEnd parses an interval timestamp such as "15.03.2025 18:30 UTC"
// into a UTC instant.
func ParseValidEnd(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return time.Time{}, fmt.Errorf("%w: %q has no zone", ErrTimestampParse, s)
	}

	abbr := s[i+1:]
	offset, ok := zoneOffsets[abbr]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown zone %q in %q", ErrTimestampParse, abbr, s)
	}

	t, err := time.ParseInLocation(validEndLayout, strings.TrimSpace(s[:i]), time.FixedZone(abbr, offset))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrTimestampParse, err)
	}
	return t.UTC(), nil
}

// FormatValidEnd renders t the way the feed does, always in UTC.
func FormatValidEnd(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04") + " UTC"
}
