package medication

import (
	"time"

	"github.com/careops/careops/pkg/clock"
)

// Dose computation is kept as pure functions over the schedule's
// sorted time-of-day list so the rollover behavior is testable without
// a store or a wall clock.

// firstDoseOnOrAfter returns the first administration instant at or
// after ref within the schedule's validity window, or nil if the
// window is exhausted. Used when the schedule is created.
func firstDoseOnOrAfter(times []string, ref, start time.Time, end *time.Time) (*time.Time, error) {
	return nextDose(times, ref, start, end, true)
}

// doseAfter returns the earliest administration instant strictly after
// ref, rolling to the next day's first time when no time remains for
// the current day. Used after each administration.
func doseAfter(times []string, ref, start time.Time, end *time.Time) (*time.Time, error) {
	return nextDose(times, ref, start, end, false)
}

func nextDose(times []string, ref, start time.Time, end *time.Time, inclusive bool) (*time.Time, error) {
	if len(times) == 0 {
		return nil, nil
	}
	ref = ref.UTC()
	if startDay := clock.Day(start); ref.Before(startDay) {
		ref = startDay
		inclusive = true
	}

	// The answer is always on ref's day or the next one: the day after
	// ref, the first listed time qualifies unconditionally.
	day := clock.Day(ref)
	for i := 0; i < 2; i++ {
		d := day.AddDate(0, 0, i)
		if end != nil && d.After(clock.Day(*end)) {
			return nil, nil
		}
		for _, hhmm := range times {
			instant, err := clock.At(d, hhmm)
			if err != nil {
				return nil, err
			}
			if instant.After(ref) || (inclusive && instant.Equal(ref)) {
				return &instant, nil
			}
		}
	}
	return nil, nil
}
