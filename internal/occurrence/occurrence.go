// Package occurrence expands schedules into the concrete dose slots of a
// calendar date and merges in the recorded intake log. Everything here is a
// pure computation over in-memory snapshots; results are recomputed on every
// query and never written back.
package occurrence

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/recurrence"
)

// Key identifies one dose slot on one date.
type Key struct {
	ScheduleID   string
	MedicationID string
	Date         string
	Time         string
}

// KeyOf derives the slot key of a recorded intake.
func KeyOf(in model.Intake) Key {
	return Key{
		ScheduleID:   in.ScheduleID,
		MedicationID: in.MedicationID,
		Date:         in.ScheduledDate,
		Time:         in.ScheduledTime,
	}
}

// Occurrence is the computed view of one dose slot: a schedule time-slot on a
// date combined with any matching intake. It is never persisted.
type Occurrence struct {
	ScheduleID    string             `json:"scheduleId"`
	MedicationID  string             `json:"medicationId"`
	Date          string             `json:"date"`
	Time          string             `json:"time"`
	Dosage        string             `json:"dosage"`
	Unit          string             `json:"unit"`
	MealRelation  model.MealRelation `json:"mealRelation"`
	Status        model.Status       `json:"status"`
	TakenAt       *time.Time         `json:"takenAt,omitempty"`
	Name          string             `json:"name"`
	DosagePerUnit string             `json:"dosagePerUnit,omitempty"`
	Instructions  string             `json:"instructions"`
	IconName      string             `json:"iconName"`
	IconColor     string             `json:"iconColor"`
}

// Key returns the slot key of an occurrence.
func (o Occurrence) Key() Key {
	return Key{ScheduleID: o.ScheduleID, MedicationID: o.MedicationID, Date: o.Date, Time: o.Time}
}

// ForDate expands every schedule active on date into occurrence slots and
// merges the intake log in two passes. The first pass walks applicable
// schedules: display fields come from the medication's current record, and a
// matching intake overrides dosage, unit and icon with its snapshot and
// supplies the status. The second pass adds orphaned intakes, records for
// this date whose slot key no schedule produced because the schedule was
// deleted or edited, sourcing every field from the snapshot so history
// stays visible.
//
// A schedule whose medication no longer exists contributes nothing.
func ForDate(date string, meds []model.Medication, schedules []model.Schedule, intakes []model.Intake) []Occurrence {
	medByID := make(map[string]model.Medication, len(meds))
	for _, m := range meds {
		medByID[m.ID] = m
	}
	intakeByKey := make(map[Key]model.Intake, len(intakes))
	for _, in := range intakes {
		intakeByKey[KeyOf(in)] = in
	}

	var out []Occurrence
	emitted := make(map[Key]struct{})

	for _, s := range schedules {
		if !recurrence.InRange(s, date) || !recurrence.OccursOn(s, date) {
			continue
		}
		med, ok := medByID[s.MedicationID]
		if !ok {
			continue
		}
		for _, slot := range s.Times {
			key := Key{ScheduleID: s.ID, MedicationID: med.ID, Date: date, Time: slot.Time}
			emitted[key] = struct{}{}

			occ := Occurrence{
				ScheduleID:    s.ID,
				MedicationID:  med.ID,
				Date:          date,
				Time:          slot.Time,
				Dosage:        slot.Dosage,
				Unit:          slot.Unit,
				MealRelation:  s.MealRelation,
				Status:        model.StatusPending,
				Name:          med.Name,
				DosagePerUnit: med.DosagePerUnit,
				Instructions:  med.Instructions,
				IconName:      med.IconName,
				IconColor:     med.IconColor,
			}
			if in, ok := intakeByKey[key]; ok {
				occ.Status = in.Status
				occ.TakenAt = in.TakenAt
				if in.Dosage != "" {
					occ.Dosage = in.Dosage
				}
				if in.Unit != "" {
					occ.Unit = in.Unit
				}
				if in.IconName != "" {
					occ.IconName = in.IconName
				}
				if in.IconColor != "" {
					occ.IconColor = in.IconColor
				}
			}
			out = append(out, occ)
		}
	}

	// Orphan pass: recorded intakes whose schedule no longer covers this date.
	for _, in := range intakes {
		if in.ScheduledDate != date {
			continue
		}
		if _, ok := emitted[KeyOf(in)]; ok {
			continue
		}
		out = append(out, Occurrence{
			ScheduleID:    in.ScheduleID,
			MedicationID:  in.MedicationID,
			Date:          date,
			Time:          in.ScheduledTime,
			Dosage:        in.Dosage,
			Unit:          in.Unit,
			MealRelation:  in.MealRelation,
			Status:        in.Status,
			TakenAt:       in.TakenAt,
			Name:          in.MedicationName,
			DosagePerUnit: in.DosagePerUnit,
			Instructions:  in.Instructions,
			IconName:      in.IconName,
			IconColor:     in.IconColor,
		})
	}

	return out
}

// MinutesOfDay converts an "15:04" time to minutes since midnight. Malformed
// times sort first.
func MinutesOfDay(t string) int {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0
	}
	return h*60 + m
}

// SortByTime orders occurrences by time of day, in place. Slots sharing a
// time keep their relative order so callers can suppress repeated time labels.
func SortByTime(occs []Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		return MinutesOfDay(occs[i].Time) < MinutesOfDay(occs[j].Time)
	})
}
