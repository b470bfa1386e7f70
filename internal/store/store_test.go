package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

func newTestStore(t *testing.T) Store {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	err = db.AutoMigrate(
		&model.Medication{},
		&model.Schedule{},
		&model.DraftSchedule{},
		&model.Intake{},
		&model.NotificationSettings{},
		&model.PushSubscription{},
	)
	require.NoError(t, err)
	return NewGormStore(db)
}

func seedMedication(t *testing.T, s Store, id string) model.Medication {
	med := model.Medication{
		ID:   id,
		Name: "Аспирин",
		Form: model.FormTablet,
		Unit: "таблетка",
	}
	require.NoError(t, s.CreateMedication(context.Background(), &med))
	return med
}

func seedSchedule(t *testing.T, s Store, medID string) model.Schedule {
	sched := model.Schedule{
		MedicationID: medID,
		Frequency:    model.FrequencyDaily,
		StartDate:    "2024-01-01",
		EndDate:      "2024-01-31",
		Times:        []model.TimeSlot{{Time: "09:00", Dosage: "1", Unit: "таблетка"}},
	}
	require.NoError(t, s.CreateSchedule(context.Background(), &sched))
	return sched
}

func TestMedicationNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMedication(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateMedication(context.Background(), "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleTimesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedMedication(t, s, "med-1")
	sched := model.Schedule{
		MedicationID: "med-1",
		Frequency:    model.FrequencySpecificDays,
		Days:         []int{1, 3, 5},
		StartDate:    "2024-01-01",
		Times: []model.TimeSlot{
			{Time: "09:00", Dosage: "1", Unit: "таблетка"},
			{Time: "21:00", Dosage: "2", Unit: "мг"},
		},
	}
	require.NoError(t, s.CreateSchedule(context.Background(), &sched))

	got, err := s.GetSchedule(context.Background(), sched.ID)
	require.NoError(t, err)
	assert.Equal(t, sched.Times, got.Times)
	assert.Equal(t, []int{1, 3, 5}, got.Days)
}

func TestDeleteMedicationKeepsHistory(t *testing.T) {
	s := newTestStore(t)
	seedMedication(t, s, "med-1")
	sched := seedSchedule(t, s, "med-1")

	in := model.Intake{
		ScheduleID:    sched.ID,
		MedicationID:  "med-1",
		ScheduledDate: "2024-01-05",
		ScheduledTime: "09:00",
		Status:        model.StatusTaken,
	}
	require.NoError(t, s.RecordIntake(context.Background(), &in, nil))

	require.NoError(t, s.DeleteMedication(context.Background(), "med-1", true))

	_, err := s.GetMedication(context.Background(), "med-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetSchedule(context.Background(), sched.ID)
	assert.ErrorIs(t, err, ErrNotFound, "schedules cascade with the medication")

	intakes, err := s.ListIntakes(context.Background())
	require.NoError(t, err)
	assert.Len(t, intakes, 1, "history survives with keepHistory")
}

func TestDeleteMedicationPurgesHistory(t *testing.T) {
	s := newTestStore(t)
	seedMedication(t, s, "med-1")
	sched := seedSchedule(t, s, "med-1")

	in := model.Intake{
		ScheduleID:    sched.ID,
		MedicationID:  "med-1",
		ScheduledDate: "2024-01-05",
		ScheduledTime: "09:00",
		Status:        model.StatusTaken,
	}
	require.NoError(t, s.RecordIntake(context.Background(), &in, nil))

	require.NoError(t, s.DeleteMedication(context.Background(), "med-1", false))

	intakes, err := s.ListIntakes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, intakes)
}

func TestRecordIntakeUpsertsSlot(t *testing.T) {
	s := newTestStore(t)
	seedMedication(t, s, "med-1")
	sched := seedSchedule(t, s, "med-1")

	first := model.Intake{
		ScheduleID:     sched.ID,
		MedicationID:   "med-1",
		ScheduledDate:  "2024-01-05",
		ScheduledTime:  "09:00",
		Status:         model.StatusTaken,
		MedicationName: "Аспирин",
		Dosage:         "1",
	}
	require.NoError(t, s.RecordIntake(context.Background(), &first, nil))

	second := model.Intake{
		ScheduleID:     sched.ID,
		MedicationID:   "med-1",
		ScheduledDate:  "2024-01-05",
		ScheduledTime:  "09:00",
		Status:         model.StatusMissed,
		MedicationName: "Другое имя",
		Dosage:         "2",
	}
	require.NoError(t, s.RecordIntake(context.Background(), &second, nil))

	intakes, err := s.ListIntakes(context.Background())
	require.NoError(t, err)
	require.Len(t, intakes, 1)
	assert.Equal(t, model.StatusMissed, intakes[0].Status, "status is overwritten")
	assert.Equal(t, "Аспирин", intakes[0].MedicationName, "first snapshot is preserved")
	assert.Equal(t, "1", intakes[0].Dosage)
}

func TestRecordIntakeAppliesStockInSameTx(t *testing.T) {
	s := newTestStore(t)
	med := model.Medication{
		ID:                "med-1",
		Name:              "Аспирин",
		Form:              model.FormTablet,
		Unit:              "таблетка",
		TrackStock:        true,
		RemainingQuantity: 10,
	}
	require.NoError(t, s.CreateMedication(context.Background(), &med))
	sched := seedSchedule(t, s, "med-1")

	in := model.Intake{
		ScheduleID:    sched.ID,
		MedicationID:  "med-1",
		ScheduledDate: "2024-01-05",
		ScheduledTime: "09:00",
		Status:        model.StatusTaken,
	}
	remaining := 9.0
	require.NoError(t, s.RecordIntake(context.Background(), &in, &remaining))

	got, err := s.GetMedication(context.Background(), "med-1")
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.RemainingQuantity)
}

func TestConfirmDraftPromotesSchedule(t *testing.T) {
	s := newTestStore(t)
	seedMedication(t, s, "med-1")

	draft := model.DraftSchedule{
		ID:           "draft-1",
		MedicationID: "med-1",
		Frequency:    model.FrequencyDaily,
		StartDate:    "2024-02-01",
		EndDate:      "2024-02-10",
		Times:        []model.TimeSlot{{Time: "08:00", Dosage: "1", Unit: "таблетка"}},
	}
	require.NoError(t, s.SaveDraft(context.Background(), &draft))

	sched, err := s.ConfirmDraft(context.Background(), "draft-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sched.ID)
	assert.NotEqual(t, "draft-1", sched.ID, "the schedule gets a fresh id")
	assert.Equal(t, "med-1", sched.MedicationID)
	assert.Equal(t, draft.Times, sched.Times)

	_, err = s.GetDraft(context.Background(), "draft-1")
	assert.ErrorIs(t, err, ErrNotFound, "the draft is consumed")

	got, err := s.GetSchedule(context.Background(), sched.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", got.StartDate)
}

func TestConfirmMissingDraft(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ConfirmDraft(context.Background(), "draft-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSettingsCreatesDefaults(t *testing.T) {
	s := newTestStore(t)

	settings, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.MedicationRemindersEnabled)
	assert.Equal(t, 10, settings.MinutesBeforeScheduledTime)
	assert.True(t, settings.LowStockRemindersEnabled)

	settings.MinutesBeforeScheduledTime = 30
	require.NoError(t, s.SaveSettings(context.Background(), &settings))

	again, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, again.MinutesBeforeScheduledTime)
}
