// Package clock holds the time-of-day helpers shared by the scheduling
// domains. Times of day travel as zero-padded "HH:MM" 24-hour strings;
// the 12-hour form is display-only. All calendar math is pinned to UTC.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseHHMM parses a "HH:MM" (or "H:MM") 24-hour time of day.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// Normalize returns the zero-padded canonical form of a time of day,
// e.g. "9:5" -> "09:05".
func Normalize(s string) (string, error) {
	h, m, err := ParseHHMM(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// Label12h converts a 24-hour "HH:MM" value into the "H:MM AM/PM" form
// used for slot display. No timezone adjustment is applied.
func Label12h(hhmm string) (string, error) {
	h, m, err := ParseHHMM(hhmm)
	if err != nil {
		return "", err
	}
	suffix := "AM"
	switch {
	case h == 0:
		h = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		h -= 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix), nil
}

// Slots enumerates times of day at stepMinutes granularity within
// [start, end). Both bounds are "HH:MM" values.
func Slots(start, end string, stepMinutes int) ([]string, error) {
	sh, sm, err := ParseHHMM(start)
	if err != nil {
		return nil, err
	}
	eh, em, err := ParseHHMM(end)
	if err != nil {
		return nil, err
	}
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("invalid slot step %d", stepMinutes)
	}
	var out []string
	for cur, stop := sh*60+sm, eh*60+em; cur < stop; cur += stepMinutes {
		out = append(out, fmt.Sprintf("%02d:%02d", cur/60, cur%60))
	}
	return out, nil
}

// At combines a calendar date with a "HH:MM" time of day into a UTC instant.
func At(date time.Time, hhmm string) (time.Time, error) {
	h, m, err := ParseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC), nil
}

// Day truncates an instant to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d.UTC(), nil
}

// FormatDate renders a calendar date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
