package holiday

import "time"

// =============================================================================
// HOUR CALCULATOR - date span -> billable hours
// =============================================================================

// workingDayHours is the number of hours billed per working day.
const workingDayHours = 8

// HoursBetween converts a requested [start, end] span into billable holiday
// hours.
//
// Same-day spans (end - start covers zero whole days) bill the raw hour
// difference and fail with DailyLimitError above workingDayHours - a
// single day cannot be billed for more than a standard working day, and the
// excess is an error, not a clamp.
//
// Multi-day spans bill whole weeks at five working days each, then walk the
// remaining days from start+weeks*7d up to (exclusive) end, skipping
// Saturdays and Sundays. Working days x 8 = hours.
//
// The function is pure and deterministic: the rejection credit in the engine
// relies on recomputing the same value from a stored interval.
func HoursBetween(start, end time.Time) (int64, error) {
	if start.After(end) {
		return 0, ErrInvalidRange
	}

	days := int64(end.Sub(start).Hours() / 24)
	if days == 0 {
		hours := int64(end.Sub(start).Hours())
		if hours > workingDayHours {
			return 0, &DailyLimitError{Start: start, End: end, Hours: hours}
		}
		return hours, nil
	}

	weeks := days / 7
	workingDays := weeks * 5

	for day := start.AddDate(0, 0, int(weeks*7)); day.Before(end); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			workingDays++
		}
	}

	return workingDays * workingDayHours, nil
}
