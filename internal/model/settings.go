package model

import "time"

// NotificationSettings is the single row of reminder preferences.
type NotificationSettings struct {
	ID                         string    `gorm:"primaryKey;size:64" json:"id"`
	MedicationRemindersEnabled bool      `json:"medicationRemindersEnabled"`
	MinutesBeforeScheduledTime int       `json:"minutesBeforeScheduledTime"`
	LowStockRemindersEnabled   bool      `json:"lowStockRemindersEnabled"`
	CreatedAt                  time.Time `json:"createdAt"`
	UpdatedAt                  time.Time `json:"updatedAt"`
}
