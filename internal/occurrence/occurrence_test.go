package occurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

func testMedication() model.Medication {
	return model.Medication{
		ID:            "med-1",
		Name:          "Ибупрофен",
		Form:          model.FormTablet,
		DosagePerUnit: "200 мг",
		Unit:          "таблетка",
		Instructions:  "после еды",
		IconName:      "pill",
		IconColor:     "#ff0000",
	}
}

func testSchedule() model.Schedule {
	return model.Schedule{
		ID:           "sch-1",
		MedicationID: "med-1",
		Frequency:    model.FrequencyDaily,
		MealRelation: model.AfterMeal,
		StartDate:    "2024-01-01",
		EndDate:      "2024-01-31",
		Times: []model.TimeSlot{
			{Time: "09:00", Dosage: "1", Unit: "таблетка"},
			{Time: "21:00", Dosage: "1", Unit: "таблетка"},
		},
	}
}

func TestForDateExpandsScheduleSlots(t *testing.T) {
	meds := []model.Medication{testMedication()}
	schedules := []model.Schedule{testSchedule()}

	occs := ForDate("2024-01-05", meds, schedules, nil)
	require.Len(t, occs, 2)

	assert.Equal(t, "09:00", occs[0].Time)
	assert.Equal(t, model.StatusPending, occs[0].Status)
	assert.Equal(t, "Ибупрофен", occs[0].Name)
	assert.Equal(t, "1", occs[0].Dosage)
	assert.Equal(t, model.AfterMeal, occs[0].MealRelation)
	assert.Equal(t, "pill", occs[0].IconName)
	assert.Nil(t, occs[0].TakenAt)
}

func TestForDateOutsideRangeIsEmpty(t *testing.T) {
	meds := []model.Medication{testMedication()}
	schedules := []model.Schedule{testSchedule()}

	assert.Empty(t, ForDate("2024-02-01", meds, schedules, nil))
	assert.Empty(t, ForDate("2023-12-31", meds, schedules, nil))
}

func TestForDateIntakeOverridesSlot(t *testing.T) {
	meds := []model.Medication{testMedication()}
	schedules := []model.Schedule{testSchedule()}
	takenAt := time.Date(2024, 1, 5, 9, 12, 0, 0, time.UTC)
	intakes := []model.Intake{{
		ID:            "int-1",
		ScheduleID:    "sch-1",
		MedicationID:  "med-1",
		ScheduledDate: "2024-01-05",
		ScheduledTime: "09:00",
		Status:        model.StatusTaken,
		TakenAt:       &takenAt,
		Dosage:        "2",
		Unit:          "таблетки",
		IconName:      "pill-old",
	}}

	occs := ForDate("2024-01-05", meds, schedules, intakes)
	require.Len(t, occs, 2)

	assert.Equal(t, model.StatusTaken, occs[0].Status)
	assert.Equal(t, &takenAt, occs[0].TakenAt)
	assert.Equal(t, "2", occs[0].Dosage, "recorded dosage wins over the slot")
	assert.Equal(t, "таблетки", occs[0].Unit)
	assert.Equal(t, "pill-old", occs[0].IconName, "icon snapshot wins")
	assert.Equal(t, "Ибупрофен", occs[0].Name, "name still comes from the live record")

	assert.Equal(t, model.StatusPending, occs[1].Status, "evening slot untouched")
}

func TestForDateOrphanIntakeSurvivesScheduleDeletion(t *testing.T) {
	// The schedule list no longer contains sch-gone, but its recorded intake
	// must stay visible from the denormalized snapshot.
	meds := []model.Medication{testMedication()}
	intakes := []model.Intake{{
		ID:             "int-2",
		ScheduleID:     "sch-gone",
		MedicationID:   "med-gone",
		ScheduledDate:  "2024-01-05",
		ScheduledTime:  "14:00",
		Status:         model.StatusMissed,
		Dosage:         "5",
		Unit:           "мл",
		MedicationName: "Сироп от кашля",
		MealRelation:   model.BeforeMeal,
		Instructions:   "",
		IconName:       "bottle",
		IconColor:      "#00ff00",
	}}

	occs := ForDate("2024-01-05", meds, nil, intakes)
	require.Len(t, occs, 1)

	assert.Equal(t, "Сироп от кашля", occs[0].Name)
	assert.Equal(t, model.StatusMissed, occs[0].Status)
	assert.Equal(t, "14:00", occs[0].Time)
	assert.Equal(t, model.BeforeMeal, occs[0].MealRelation)
	assert.Equal(t, "bottle", occs[0].IconName)
}

func TestForDateOrphanOnOtherDateIgnored(t *testing.T) {
	intakes := []model.Intake{{
		ScheduleID:    "sch-gone",
		MedicationID:  "med-gone",
		ScheduledDate: "2024-01-04",
		ScheduledTime: "14:00",
		Status:        model.StatusTaken,
	}}
	assert.Empty(t, ForDate("2024-01-05", nil, nil, intakes))
}

func TestForDateSkipsScheduleWithMissingMedication(t *testing.T) {
	schedules := []model.Schedule{testSchedule()}
	assert.Empty(t, ForDate("2024-01-05", nil, schedules, nil))
}

func TestSortByTime(t *testing.T) {
	occs := []Occurrence{
		{Time: "21:00", Name: "c"},
		{Time: "09:00", Name: "a"},
		{Time: "09:00", Name: "b"},
		{Time: "bogus", Name: "z"},
	}
	SortByTime(occs)

	assert.Equal(t, "z", occs[0].Name, "malformed time sorts first")
	assert.Equal(t, "a", occs[1].Name)
	assert.Equal(t, "b", occs[2].Name, "equal times keep relative order")
	assert.Equal(t, "c", occs[3].Name)
}

func TestMinutesOfDay(t *testing.T) {
	assert.Equal(t, 0, MinutesOfDay("00:00"))
	assert.Equal(t, 570, MinutesOfDay("09:30"))
	assert.Equal(t, 1439, MinutesOfDay("23:59"))
	assert.Equal(t, 0, MinutesOfDay("bogus"))
}
