// Package timeutil converts between the 12-hour wall-clock representation
// used on booking records and 24-hour instants.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidTime means the time string or meridiem could not be parsed.
	ErrInvalidTime = errors.New("invalid time format")
	// ErrInvalidDate means the date string could not be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

const dateLayout = "2006-01-02"

// To24Hour converts a 12-hour clock string ("H:MM" or "HH:MM:SS") plus a
// meridiem marker into "HH:MM". Hours outside 1-12 and minutes outside
// 0-59 are rejected. PM keeps 12 as noon and adds 12 otherwise; AM maps
// 12 to midnight.
func To24Hour(clock, meridiem string) (string, error) {
	hour, minute, err := splitClock(clock)
	if err != nil {
		return "", err
	}

	switch strings.ToUpper(strings.TrimSpace(meridiem)) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	default:
		return "", fmt.Errorf("%w: meridiem %q", ErrInvalidTime, meridiem)
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// From24Hour is the inverse of To24Hour: it converts "HH:MM" into a
// 12-hour clock string and meridiem marker.
func From24Hour(clock string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}

	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	if hour == 0 {
		hour = 12
	} else if hour > 12 {
		hour -= 12
	}
	return fmt.Sprintf("%d:%02d", hour, minute), meridiem, nil
}

// Instant combines a calendar date ("2006-01-02") with a 12-hour clock
// string and meridiem into a time.Time in UTC.
func Instant(date, clock, meridiem string) (time.Time, error) {
	converted, err := To24Hour(clock, meridiem)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(dateLayout+" 15:04", strings.TrimSpace(date)+" "+converted)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// DurationBetween computes the duration between the check-in and
// check-out date+time+meridiem tuples. Negative durations are returned
// as-is; callers decide whether ordering is acceptable.
func DurationBetween(inDate, inClock, inMeridiem, outDate, outClock, outMeridiem string) (time.Duration, error) {
	start, err := Instant(inDate, inClock, inMeridiem)
	if err != nil {
		return 0, err
	}
	end, err := Instant(outDate, outClock, outMeridiem)
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// FormatDuration renders a duration as "Xh Ym", or "Xh" when the minute
// component is zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// ParseDate parses a calendar date in the backend's "2006-01-02" form.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// FormatDate renders a time as a backend calendar date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func splitClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	return hour, minute, nil
}
