package model

import "time"

// Frequency identifies the recurrence rule of a schedule.
type Frequency string

const (
	FrequencyDaily         Frequency = "daily"
	FrequencyEveryOtherDay Frequency = "every_other_day"
	FrequencySpecificDays  Frequency = "specific_days"
	FrequencySpecificDates Frequency = "specific_dates"
)

// MealRelation describes when a dose is taken relative to meals.
type MealRelation string

const (
	BeforeMeal     MealRelation = "before_meal"
	WithMeal       MealRelation = "with_meal"
	AfterMeal      MealRelation = "after_meal"
	NoMealRelation MealRelation = "no_relation"
)

// TimeSlot is one intake time within a schedule, with its own dosage.
type TimeSlot struct {
	Time   string `json:"time"` // "15:04"
	Dosage string `json:"dosage"`
	Unit   string `json:"unit"`
}

// Schedule is a recurring intake plan for one medication. Dates are plain
// "2006-01-02" strings in the user's local calendar; Days holds weekday
// numbers 0=Sunday..6=Saturday.
type Schedule struct {
	ID           string       `gorm:"primaryKey;size:64" json:"id"`
	MedicationID string       `gorm:"index;size:64;not null" json:"medicationId"`
	Times        []TimeSlot   `gorm:"serializer:json" json:"times"`
	Frequency    Frequency    `gorm:"size:32;not null" json:"frequency"`
	Days         []int        `gorm:"serializer:json" json:"days"`
	Dates        []string     `gorm:"serializer:json" json:"dates"`
	MealRelation MealRelation `gorm:"size:32" json:"mealRelation"`
	StartDate    string       `gorm:"size:10;not null" json:"startDate"`
	EndDate      string       `gorm:"size:10" json:"endDate,omitempty"`
	DurationDays int          `json:"durationDays,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// DraftSchedule is a schedule being assembled in the editor. It lives in its
// own table until confirmed into a real Schedule or discarded, and is never
// considered by occurrence expansion or reminders.
type DraftSchedule struct {
	ID           string       `gorm:"primaryKey;size:72" json:"id"`
	MedicationID string       `gorm:"size:64" json:"medicationId"`
	Times        []TimeSlot   `gorm:"serializer:json" json:"times"`
	Frequency    Frequency    `gorm:"size:32" json:"frequency"`
	Days         []int        `gorm:"serializer:json" json:"days"`
	Dates        []string     `gorm:"serializer:json" json:"dates"`
	MealRelation MealRelation `gorm:"size:32" json:"mealRelation"`
	StartDate    string       `gorm:"size:10" json:"startDate"`
	EndDate      string       `gorm:"size:10" json:"endDate,omitempty"`
	DurationDays int          `json:"durationDays,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Schedule converts a draft into the schedule it describes, under the given id.
func (d DraftSchedule) Schedule(id string) Schedule {
	return Schedule{
		ID:           id,
		MedicationID: d.MedicationID,
		Times:        d.Times,
		Frequency:    d.Frequency,
		Days:         d.Days,
		Dates:        d.Dates,
		MealRelation: d.MealRelation,
		StartDate:    d.StartDate,
		EndDate:      d.EndDate,
		DurationDays: d.DurationDays,
	}
}
