// Package adherence computes intake statistics and inventory state. All
// functions are pure over the intake log and medication list; windows are day
// granular and anchored on the caller-supplied current time so results are
// reproducible in tests.
package adherence

import (
	"sort"
	"time"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/recurrence"
)

// Stats aggregates the intake log over a trailing window.
type Stats struct {
	Total         int     `json:"total"`
	Taken         int     `json:"taken"`
	Missed        int     `json:"missed"`
	AdherenceRate float64 `json:"adherenceRate"`
}

// MedicationAdherence is one row of the per-medication adherence ranking.
type MedicationAdherence struct {
	MedicationID   string  `json:"medicationId"`
	MedicationName string  `json:"medicationName"`
	AdherenceRate  float64 `json:"adherenceRate"`
}

// DayAdherence is one day of the adherence series.
type DayAdherence struct {
	Date          string  `json:"date"`
	AdherenceRate float64 `json:"adherenceRate"`
}

// unknownMedication labels rows whose snapshot carries no name.
const unknownMedication = "Неизвестное лекарство"

// inWindow reports whether a scheduled date lies in the trailing windowDays
// ending today, bounds inclusive.
func inWindow(date string, now time.Time, windowDays int) bool {
	today := recurrence.FormatDate(now)
	from := recurrence.FormatDate(now.AddDate(0, 0, -windowDays))
	return date >= from && date <= today
}

// Compute aggregates total, taken, missed and the adherence percentage over
// the trailing windowDays. A window of 0 means all time. The rate is exactly
// 0 when no intakes fall in the window.
func Compute(intakes []model.Intake, now time.Time, windowDays int) Stats {
	var s Stats
	for _, in := range intakes {
		if windowDays > 0 && !inWindow(in.ScheduledDate, now, windowDays) {
			continue
		}
		s.Total++
		switch in.Status {
		case model.StatusTaken:
			s.Taken++
		case model.StatusMissed:
			s.Missed++
		}
	}
	if s.Total > 0 {
		s.AdherenceRate = float64(s.Taken) / float64(s.Total) * 100
	}
	return s
}

// ByMedication ranks medications by adherence over the trailing windowDays,
// highest first. Names come from the denormalized intake snapshots, not a
// live medication lookup, so deleted medications keep their last recorded
// name; when a medication was recorded under several names the most recently
// encountered snapshot wins.
func ByMedication(intakes []model.Intake, now time.Time, windowDays int) []MedicationAdherence {
	type bucket struct {
		total, taken int
		name         string
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, in := range intakes {
		if !inWindow(in.ScheduledDate, now, windowDays) {
			continue
		}
		b, ok := buckets[in.MedicationID]
		if !ok {
			b = &bucket{}
			buckets[in.MedicationID] = b
			order = append(order, in.MedicationID)
		}
		b.total++
		if in.Status == model.StatusTaken {
			b.taken++
		}
		if in.MedicationName != "" {
			b.name = in.MedicationName
		}
	}

	out := make([]MedicationAdherence, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		name := b.name
		if name == "" {
			name = unknownMedication
		}
		rate := 0.0
		if b.total > 0 {
			rate = float64(b.taken) / float64(b.total) * 100
		}
		out = append(out, MedicationAdherence{MedicationID: id, MedicationName: name, AdherenceRate: rate})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AdherenceRate > out[j].AdherenceRate
	})
	return out
}

// ByDay computes an independent adherence rate for each of the windowDays
// calendar days ending today, oldest first. A day with no recorded intakes
// reports 0, not "no data"; charting layers live with that.
func ByDay(intakes []model.Intake, now time.Time, windowDays int) []DayAdherence {
	byDate := make(map[string][]model.Intake)
	for _, in := range intakes {
		byDate[in.ScheduledDate] = append(byDate[in.ScheduledDate], in)
	}

	out := make([]DayAdherence, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		date := recurrence.FormatDate(now.AddDate(0, 0, -i))
		day := byDate[date]
		taken := 0
		for _, in := range day {
			if in.Status == model.StatusTaken {
				taken++
			}
		}
		rate := 0.0
		if len(day) > 0 {
			rate = float64(taken) / float64(len(day)) * 100
		}
		out = append(out, DayAdherence{Date: date, AdherenceRate: rate})
	}
	return out
}

// LowStock lists medications whose tracked stock has fallen to or under
// their low-stock threshold. Medications that do not track stock are excluded
// regardless of level.
func LowStock(meds []model.Medication) []model.Medication {
	var out []model.Medication
	for _, m := range meds {
		if m.TrackStock && m.RemainingQuantity <= m.LowStockThreshold {
			out = append(out, m)
		}
	}
	return out
}
