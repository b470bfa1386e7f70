// Package tracker is the single write path for dose recording: it upserts
// the intake log, depletes medication stock in the canonical unit and fires
// low-stock reminders on threshold crossings.
package tracker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nastya-andreeva/dailydose-server/internal/metrics"
	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/store"
	"github.com/nastya-andreeva/dailydose-server/internal/units"
)

// Notifier delivers a low-stock reminder. Delivery is fire-and-forget; the
// tracker never retries.
type Notifier interface {
	LowStock(medicationName string, remaining float64, unit string)
}

// Service records intakes. Stock updates are read-modify-write, so the
// service serializes Record calls behind a mutex.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewService creates a tracker backed by st, notifying through n.
func NewService(st store.Store, n Notifier, logger *zap.Logger) *Service {
	return &Service{store: st, notifier: n, logger: logger, now: time.Now}
}

// RecordParams identifies the dose slot being recorded and the dosage that
// was actually taken.
type RecordParams struct {
	ScheduleID   string
	MedicationID string
	Date         string // "2006-01-02"
	Time         string // "15:04"
	Status       model.Status
	Dosage       string
	Unit         string
}

// Record upserts the intake for the slot. Re-recording the same slot
// overwrites status and takenAt rather than duplicating. When the dose was
// taken and the medication tracks stock, the dosage is converted to the
// medication's canonical unit and subtracted, floored at zero; the low-stock
// reminder fires only when this subtraction crosses the threshold from
// above, and re-arms once stock is edited back above it.
//
// A slot referencing a deleted medication or schedule is a silent no-op: the
// intake history of such slots is immutable. Persistence failures propagate
// with no partial apply.
func (s *Service) Record(ctx context.Context, p RecordParams) (*model.Intake, error) {
	if p.Status != model.StatusTaken && p.Status != model.StatusMissed {
		return nil, fmt.Errorf("invalid intake status %q", p.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	med, err := s.store.GetMedication(ctx, p.MedicationID)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sched, err := s.store.GetSchedule(ctx, p.ScheduleID)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	in := model.Intake{
		ScheduleID:     p.ScheduleID,
		MedicationID:   p.MedicationID,
		ScheduledDate:  p.Date,
		ScheduledTime:  p.Time,
		Status:         p.Status,
		MedicationName: med.Name,
		MealRelation:   sched.MealRelation,
		DosagePerUnit:  med.DosagePerUnit,
		Instructions:   med.Instructions,
		Dosage:         p.Dosage,
		Unit:           p.Unit,
		IconName:       med.IconName,
		IconColor:      med.IconColor,
	}
	if p.Status == model.StatusTaken {
		t := s.now()
		in.TakenAt = &t
	}

	var newRemaining *float64
	crossed := false
	if p.Status == model.StatusTaken && med.TrackStock && med.RemainingQuantity > 0 {
		dosage, err := strconv.ParseFloat(p.Dosage, 64)
		if err != nil {
			s.logger.Warn("unparseable dosage, stock unchanged",
				zap.String("dosage", p.Dosage), zap.String("medication", med.ID))
		} else {
			used := units.Convert(s.logger, med.Form, dosage, p.Unit, med.DosagePerUnit)
			result := med.RemainingQuantity - math.Round(used*1000)/1000
			if result < 0 {
				result = 0
			}
			newRemaining = &result
			crossed = med.RemainingQuantity > med.LowStockThreshold && result <= med.LowStockThreshold
		}
	}

	if err := s.store.RecordIntake(ctx, &in, newRemaining); err != nil {
		return nil, err
	}
	metrics.IntakesRecorded.WithLabelValues(string(p.Status)).Inc()

	if crossed {
		settings, err := s.store.GetSettings(ctx)
		if err != nil {
			s.logger.Error("failed to load settings for low-stock reminder", zap.Error(err))
		} else if settings.LowStockRemindersEnabled {
			s.notifier.LowStock(med.Name, *newRemaining, med.Unit)
			metrics.LowStockReminders.Inc()
		}
	}

	return &in, nil
}
