package model

import "time"

// Status is the recorded state of a scheduled dose. Pending is never stored:
// the absence of an intake record is the pending state.
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
)

// Intake is one recorded (taken or missed) dose. At most one row exists per
// (schedule, medication, date, time) slot; recording again overwrites it.
// Medication display fields are denormalized at recording time so history
// survives later edits and deletions of the medication or schedule.
type Intake struct {
	ID            string     `gorm:"primaryKey;size:64" json:"id"`
	ScheduleID    string     `gorm:"size:64;not null;uniqueIndex:idx_intake_slot" json:"scheduleId"`
	MedicationID  string     `gorm:"size:64;not null;uniqueIndex:idx_intake_slot" json:"medicationId"`
	ScheduledDate string     `gorm:"size:10;not null;index;uniqueIndex:idx_intake_slot" json:"scheduledDate"`
	ScheduledTime string     `gorm:"size:5;not null;uniqueIndex:idx_intake_slot" json:"scheduledTime"`
	Status        Status     `gorm:"size:16;not null" json:"status"`
	TakenAt       *time.Time `json:"takenAt,omitempty"`

	// Snapshot of the medication and slot at recording time.
	MedicationName string       `gorm:"size:256" json:"medicationName"`
	MealRelation   MealRelation `gorm:"size:32" json:"mealRelation"`
	DosagePerUnit  string       `gorm:"size:64" json:"dosagePerUnit,omitempty"`
	Instructions   string       `json:"instructions"`
	Dosage         string       `gorm:"size:32" json:"dosage"`
	Unit           string       `gorm:"size:64" json:"unit"`
	IconName       string       `gorm:"size:64" json:"iconName"`
	IconColor      string       `gorm:"size:32" json:"iconColor"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
