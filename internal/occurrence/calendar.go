package occurrence

import (
	"time"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/recurrence"
)

// WeekStart returns the Monday of the week containing date.
func WeekStart(date string) string {
	t, err := recurrence.ParseDate(date)
	if err != nil {
		return date
	}
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, -1)
	}
	return recurrence.FormatDate(t)
}

// Week materializes the Monday-starting week containing date. The map is
// dense: all seven days are present, a day without doses maps to an empty
// list.
func Week(date string, meds []model.Medication, schedules []model.Schedule, intakes []model.Intake) map[string][]Occurrence {
	out := make(map[string][]Occurrence, 7)
	day := WeekStart(date)
	for i := 0; i < 7; i++ {
		occs := ForDate(day, meds, schedules, intakes)
		if occs == nil {
			occs = []Occurrence{}
		}
		SortByTime(occs)
		out[day] = occs
		day = recurrence.AddDays(day, 1)
	}
	return out
}

// statusPriority orders marker colors: a pending dose outranks a missed one,
// a missed dose outranks all-taken.
func statusPriority(s model.Status) int {
	switch s {
	case model.StatusPending:
		return 2
	case model.StatusMissed:
		return 1
	default:
		return 0
	}
}

// MarkedDates scans a sliding window of weeks around date and reports, for
// every day with at least one occurrence, the worst status present that day.
func MarkedDates(date string, weeksBefore, weeksAfter int, meds []model.Medication, schedules []model.Schedule, intakes []model.Intake) map[string]model.Status {
	out := make(map[string]model.Status)
	day := recurrence.AddDays(WeekStart(date), -7*weeksBefore)
	days := 7 * (weeksBefore + weeksAfter + 1)
	for i := 0; i < days; i++ {
		occs := ForDate(day, meds, schedules, intakes)
		if len(occs) > 0 {
			worst := occs[0].Status
			for _, o := range occs[1:] {
				if statusPriority(o.Status) > statusPriority(worst) {
					worst = o.Status
				}
			}
			out[day] = worst
		}
		day = recurrence.AddDays(day, 1)
	}
	return out
}
