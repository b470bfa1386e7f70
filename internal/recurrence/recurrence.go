// Package recurrence evaluates schedule frequency rules over calendar dates.
// Dates are plain "2006-01-02" strings in a single local calendar; string
// comparison of two such dates is chronological comparison.
package recurrence

import (
	"time"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

// DateLayout is the wire format of calendar dates throughout the service.
const DateLayout = "2006-01-02"

// ParseDate parses a wire-format date at day granularity.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t as a wire-format date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays shifts a wire-format date by n calendar days.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, n))
}

// EffectiveEnd computes the last day a schedule can produce occurrences:
// the explicit end date if set, else start plus the course duration, else
// the day after start (single-day default).
func EffectiveEnd(s model.Schedule) string {
	switch {
	case s.EndDate != "":
		return s.EndDate
	case s.DurationDays > 0:
		return AddDays(s.StartDate, s.DurationDays)
	default:
		return AddDays(s.StartDate, 1)
	}
}

// InRange reports whether date falls inside the schedule's active interval,
// checking each bound the way the occurrence materializer does: at day
// granularity, start and end inclusive. The duration bound is checked
// independently of the explicit end date; both must hold when both are set.
func InRange(s model.Schedule, date string) bool {
	if date < s.StartDate {
		return false
	}
	if s.EndDate != "" && date > s.EndDate {
		return false
	}
	if s.DurationDays > 0 && date > AddDays(s.StartDate, s.DurationDays) {
		return false
	}
	return true
}

// OccursOn reports whether the frequency rule selects date. It does not check
// the active interval; callers combine it with InRange.
func OccursOn(s model.Schedule, date string) bool {
	switch s.Frequency {
	case model.FrequencyDaily:
		return true
	case model.FrequencyEveryOtherDay:
		start, err := ParseDate(s.StartDate)
		if err != nil {
			return false
		}
		d, err := ParseDate(date)
		if err != nil {
			return false
		}
		diff := int(d.Sub(start).Hours() / 24)
		return diff%2 == 0
	case model.FrequencySpecificDays:
		d, err := ParseDate(date)
		if err != nil {
			return false
		}
		weekday := int(d.Weekday())
		for _, day := range s.Days {
			if day == weekday {
				return true
			}
		}
		return false
	case model.FrequencySpecificDates:
		for _, d := range s.Dates {
			if d == date {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ActiveDates enumerates the dates a schedule occurs on, used to pre-compute
// reminder instants for a whole course.
//
// For specific_dates the listed dates are filtered strictly before the
// effective end while every other frequency includes the end day. The
// asymmetry is deliberate: recorded intake history depends on it, so it is
// preserved rather than fixed.
func ActiveDates(s model.Schedule) []string {
	start, err := ParseDate(s.StartDate)
	if err != nil {
		return nil
	}
	end, err := ParseDate(EffectiveEnd(s))
	if err != nil || end.Before(start) {
		return nil
	}

	if s.Frequency == model.FrequencySpecificDates {
		var out []string
		for _, d := range s.Dates {
			if t, err := ParseDate(d); err == nil && t.Before(end) {
				out = append(out, d)
			}
		}
		return out
	}

	var out []string
	for i, t := 0, start; !t.After(end); i, t = i+1, t.AddDate(0, 0, 1) {
		date := FormatDate(t)
		switch s.Frequency {
		case model.FrequencyDaily:
			out = append(out, date)
		case model.FrequencyEveryOtherDay:
			if i%2 == 0 {
				out = append(out, date)
			}
		case model.FrequencySpecificDays:
			if OccursOn(s, date) {
				out = append(out, date)
			}
		}
	}
	return out
}
