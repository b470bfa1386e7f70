package model

import "time"

// Form identifies the pharmaceutical form of a medication.
type Form string

const (
	FormTablet   Form = "tablet"
	FormCapsule  Form = "capsule"
	FormDrops    Form = "drops"
	FormLiquid   Form = "liquid"
	FormOintment Form = "ointment"
	FormSpray    Form = "spray"
	FormPowder   Form = "powder"
)

// Medication is a registered medication with its stock bookkeeping.
// Quantities are kept in the canonical measurement unit of the form.
type Medication struct {
	ID                string    `gorm:"primaryKey;size:64" json:"id"`
	Name              string    `gorm:"size:256;not null" json:"name"`
	Form              Form      `gorm:"size:32;not null" json:"form"`
	DosagePerUnit     string    `gorm:"size:64" json:"dosagePerUnit,omitempty"`
	Unit              string    `gorm:"size:64;not null" json:"unit"`
	Instructions      string    `json:"instructions"`
	TotalQuantity     float64   `json:"totalQuantity"`
	RemainingQuantity float64   `json:"remainingQuantity"`
	LowStockThreshold float64   `json:"lowStockThreshold"`
	TrackStock        bool      `json:"trackStock"`
	IconName          string    `gorm:"size:64" json:"iconName"`
	IconColor         string    `gorm:"size:32" json:"iconColor"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
