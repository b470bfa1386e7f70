// Package store is the persistence collaborator: CRUD over medications,
// schedules, draft schedules, intakes and settings, backed by GORM. The
// derivation packages never import it; they consume plain snapshots.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

// ErrNotFound reports a lookup for a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListMedications(ctx context.Context) ([]model.Medication, error)
	GetMedication(ctx context.Context, id string) (model.Medication, error)
	CreateMedication(ctx context.Context, med *model.Medication) error
	UpdateMedication(ctx context.Context, id string, updates map[string]any) (model.Medication, error)
	DeleteMedication(ctx context.Context, id string, keepHistory bool) error

	ListSchedules(ctx context.Context) ([]model.Schedule, error)
	GetSchedule(ctx context.Context, id string) (model.Schedule, error)
	ListSchedulesForMedication(ctx context.Context, medicationID string) ([]model.Schedule, error)
	CreateSchedule(ctx context.Context, s *model.Schedule) error
	SaveSchedule(ctx context.Context, s *model.Schedule) error
	DeleteSchedule(ctx context.Context, id string, keepHistory bool) error

	GetDraft(ctx context.Context, id string) (model.DraftSchedule, error)
	SaveDraft(ctx context.Context, d *model.DraftSchedule) error
	DeleteDraft(ctx context.Context, id string) error
	ConfirmDraft(ctx context.Context, id string) (model.Schedule, error)

	ListIntakes(ctx context.Context) ([]model.Intake, error)
	ListIntakesForSchedule(ctx context.Context, scheduleID string) ([]model.Intake, error)
	ListIntakesForMedication(ctx context.Context, medicationID, scheduleID string) ([]model.Intake, error)
	RecordIntake(ctx context.Context, in *model.Intake, newRemaining *float64) error

	GetSettings(ctx context.Context) (model.NotificationSettings, error)
	SaveSettings(ctx context.Context, s *model.NotificationSettings) error

	Snapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot is a point-in-time read of everything the derivation packages
// consume.
type Snapshot struct {
	Medications []model.Medication
	Schedules   []model.Schedule
	Intakes     []model.Intake
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *gormStore) ListMedications(ctx context.Context) ([]model.Medication, error) {
	var meds []model.Medication
	if err := s.db.WithContext(ctx).Order("created_at").Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return meds, nil
}

func (s *gormStore) GetMedication(ctx context.Context, id string) (model.Medication, error) {
	var med model.Medication
	if err := s.db.WithContext(ctx).First(&med, "id = ?", id).Error; err != nil {
		return model.Medication{}, translateErr(err)
	}
	return med, nil
}

func (s *gormStore) CreateMedication(ctx context.Context, med *model.Medication) error {
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(med).Error; err != nil {
		return fmt.Errorf("failed to create medication %s: %w", med.ID, err)
	}
	return nil
}

func (s *gormStore) UpdateMedication(ctx context.Context, id string, updates map[string]any) (model.Medication, error) {
	res := s.db.WithContext(ctx).Model(&model.Medication{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return model.Medication{}, fmt.Errorf("failed to update medication %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Medication{}, ErrNotFound
	}
	return s.GetMedication(ctx, id)
}

// DeleteMedication removes a medication and its schedules. With keepHistory
// the recorded intakes stay behind as orphans; without it the whole intake
// history of the medication is purged too.
func (s *gormStore) DeleteMedication(ctx context.Context, id string, keepHistory bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("medication_id = ?", id).Delete(&model.Schedule{}).Error; err != nil {
			return fmt.Errorf("failed to delete schedules of medication %s: %w", id, err)
		}
		if !keepHistory {
			if err := tx.Where("medication_id = ?", id).Delete(&model.Intake{}).Error; err != nil {
				return fmt.Errorf("failed to delete intakes of medication %s: %w", id, err)
			}
		}
		if err := tx.Delete(&model.Medication{ID: id}).Error; err != nil {
			return fmt.Errorf("failed to delete medication %s: %w", id, err)
		}
		return nil
	})
}

func (s *gormStore) ListSchedules(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := s.db.WithContext(ctx).Order("created_at").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (s *gormStore) GetSchedule(ctx context.Context, id string) (model.Schedule, error) {
	var sched model.Schedule
	if err := s.db.WithContext(ctx).First(&sched, "id = ?", id).Error; err != nil {
		return model.Schedule{}, translateErr(err)
	}
	return sched, nil
}

func (s *gormStore) ListSchedulesForMedication(ctx context.Context, medicationID string) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := s.db.WithContext(ctx).Where("medication_id = ?", medicationID).Order("created_at").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules for medication %s: %w", medicationID, err)
	}
	return schedules, nil
}

func (s *gormStore) CreateSchedule(ctx context.Context, sched *model.Schedule) error {
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(sched).Error; err != nil {
		return fmt.Errorf("failed to create schedule %s: %w", sched.ID, err)
	}
	return nil
}

func (s *gormStore) SaveSchedule(ctx context.Context, sched *model.Schedule) error {
	if err := s.db.WithContext(ctx).Save(sched).Error; err != nil {
		return fmt.Errorf("failed to save schedule %s: %w", sched.ID, err)
	}
	return nil
}

// DeleteSchedule removes a schedule. With keepHistory its intakes survive and
// surface through the occurrence orphan pass; without it they are purged.
func (s *gormStore) DeleteSchedule(ctx context.Context, id string, keepHistory bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !keepHistory {
			if err := tx.Where("schedule_id = ?", id).Delete(&model.Intake{}).Error; err != nil {
				return fmt.Errorf("failed to delete intakes of schedule %s: %w", id, err)
			}
		}
		if err := tx.Delete(&model.Schedule{ID: id}).Error; err != nil {
			return fmt.Errorf("failed to delete schedule %s: %w", id, err)
		}
		return nil
	})
}

func (s *gormStore) GetDraft(ctx context.Context, id string) (model.DraftSchedule, error) {
	var d model.DraftSchedule
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return model.DraftSchedule{}, translateErr(err)
	}
	return d, nil
}

func (s *gormStore) SaveDraft(ctx context.Context, d *model.DraftSchedule) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to save draft %s: %w", d.ID, err)
	}
	return nil
}

func (s *gormStore) DeleteDraft(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&model.DraftSchedule{ID: id}).Error; err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	return nil
}

// ConfirmDraft promotes a draft into a real schedule and discards the draft
// in one transaction.
func (s *gormStore) ConfirmDraft(ctx context.Context, id string) (model.Schedule, error) {
	var sched model.Schedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d model.DraftSchedule
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			return translateErr(err)
		}
		sched = d.Schedule(uuid.NewString())
		if err := tx.Create(&sched).Error; err != nil {
			return fmt.Errorf("failed to create schedule from draft %s: %w", id, err)
		}
		if err := tx.Delete(&model.DraftSchedule{ID: id}).Error; err != nil {
			return fmt.Errorf("failed to delete confirmed draft %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return model.Schedule{}, err
	}
	return sched, nil
}

func (s *gormStore) ListIntakes(ctx context.Context) ([]model.Intake, error) {
	var intakes []model.Intake
	if err := s.db.WithContext(ctx).Order("scheduled_date, scheduled_time").Find(&intakes).Error; err != nil {
		return nil, fmt.Errorf("failed to list intakes: %w", err)
	}
	return intakes, nil
}

func (s *gormStore) ListIntakesForSchedule(ctx context.Context, scheduleID string) ([]model.Intake, error) {
	var intakes []model.Intake
	if err := s.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).Order("scheduled_date, scheduled_time").Find(&intakes).Error; err != nil {
		return nil, fmt.Errorf("failed to list intakes for schedule %s: %w", scheduleID, err)
	}
	return intakes, nil
}

func (s *gormStore) ListIntakesForMedication(ctx context.Context, medicationID, scheduleID string) ([]model.Intake, error) {
	q := s.db.WithContext(ctx).Where("medication_id = ?", medicationID)
	if scheduleID != "" {
		q = q.Where("schedule_id = ?", scheduleID)
	}
	var intakes []model.Intake
	if err := q.Order("scheduled_date, scheduled_time").Find(&intakes).Error; err != nil {
		return nil, fmt.Errorf("failed to list intakes for medication %s: %w", medicationID, err)
	}
	return intakes, nil
}

// RecordIntake upserts the intake keyed by its (schedule, medication, date,
// time) slot and, when newRemaining is set, applies the stock decrement to
// the medication inside the same transaction. Re-recording an existing slot
// overwrites status and takenAt only, so the snapshot taken at first
// recording is preserved. On failure nothing is applied.
func (s *gormStore) RecordIntake(ctx context.Context, in *model.Intake, newRemaining *float64) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "schedule_id"},
				{Name: "medication_id"},
				{Name: "scheduled_date"},
				{Name: "scheduled_time"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"status", "taken_at", "updated_at"}),
		}).Create(in).Error; err != nil {
			return fmt.Errorf("failed to upsert intake for schedule %s: %w", in.ScheduleID, err)
		}
		if newRemaining != nil {
			if err := tx.Model(&model.Medication{}).Where("id = ?", in.MedicationID).
				Update("remaining_quantity", *newRemaining).Error; err != nil {
				return fmt.Errorf("failed to update stock of medication %s: %w", in.MedicationID, err)
			}
		}
		return nil
	})
}

// GetSettings returns the notification settings row, creating the defaults on
// first access.
func (s *gormStore) GetSettings(ctx context.Context) (model.NotificationSettings, error) {
	var settings model.NotificationSettings
	err := s.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = model.NotificationSettings{
			ID:                         uuid.NewString(),
			MedicationRemindersEnabled: true,
			MinutesBeforeScheduledTime: 10,
			LowStockRemindersEnabled:   true,
		}
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return model.NotificationSettings{}, fmt.Errorf("failed to create default settings: %w", err)
		}
		return settings, nil
	}
	if err != nil {
		return model.NotificationSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *gormStore) SaveSettings(ctx context.Context, settings *model.NotificationSettings) error {
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Snapshot reads medications, schedules and intakes in one go for the pure
// derivation functions.
func (s *gormStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Medications, err = s.ListMedications(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Schedules, err = s.ListSchedules(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Intakes, err = s.ListIntakes(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
