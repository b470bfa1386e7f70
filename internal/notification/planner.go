package notification

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/recurrence"
	"github.com/nastya-andreeva/dailydose-server/internal/store"
	"github.com/nastya-andreeva/dailydose-server/internal/units"
)

// Planner pre-computes every future dose instant of a schedule and arms one
// one-shot reminder per occurrence, a configurable lead time ahead of the
// dose. It also runs a daily sweep dropping reminders of courses that have
// ended or were deleted.
type Planner struct {
	mu     sync.Mutex
	timers map[string][]*time.Timer // by schedule id

	pool   Dispatcher
	store  store.Store
	logger *zap.Logger
	cron   *gocron.Scheduler

	// now is stubbed in tests.
	now func() time.Time
}

// NewPlanner creates a reminder planner dispatching through pool.
func NewPlanner(pool Dispatcher, st store.Store, logger *zap.Logger) *Planner {
	return &Planner{
		timers: make(map[string][]*time.Timer),
		pool:   pool,
		store:  st,
		logger: logger,
		cron:   gocron.NewScheduler(time.Local),
		now:    time.Now,
	}
}

// Start arms reminders for every persisted schedule and begins the daily
// cleanup sweep.
func (p *Planner) Start(ctx context.Context) error {
	if err := p.RescheduleAll(ctx); err != nil {
		return err
	}
	if _, err := p.cron.Every(1).Day().At("00:05").Do(func() {
		p.CleanupExpired(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder cleanup: %w", err)
	}
	p.cron.StartAsync()
	return nil
}

// Stop cancels every armed reminder and the cleanup sweep.
func (p *Planner) Stop() {
	p.cron.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.timers {
		p.cancelLocked(id)
	}
}

// ScheduleCourse arms one reminder per future occurrence of the schedule and
// returns how many were armed. Instants already in the past are skipped.
// Re-scheduling an already-armed course replaces its reminders.
func (p *Planner) ScheduleCourse(s model.Schedule, medicationName string, minutesBefore int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(s.ID)

	now := p.now()
	var armed []*time.Timer
	for _, date := range recurrence.ActiveDates(s) {
		day, err := recurrence.ParseDate(date)
		if err != nil {
			continue
		}
		for _, slot := range s.Times {
			hh, mm, ok := splitTime(slot.Time)
			if !ok {
				continue
			}
			doseAt := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, time.Local)
			remindAt := doseAt.Add(-time.Duration(minutesBefore) * time.Minute)
			if remindAt.Before(now) {
				continue
			}

			dosage, _ := strconv.ParseFloat(slot.Dosage, 64)
			payload := Payload{
				Title: fmt.Sprintf("Пора принять %s", medicationName),
				Body:  fmt.Sprintf("Примите %s %s в %s", slot.Dosage, units.Display(slot.Unit, dosage), slot.Time),
				Data: map[string]any{
					"scheduleId":   s.ID,
					"medicationId": s.MedicationID,
					"date":         date,
					"time":         slot.Time,
				},
			}
			armed = append(armed, time.AfterFunc(remindAt.Sub(now), func() {
				p.pool.Dispatch(payload)
			}))
		}
	}
	p.timers[s.ID] = armed
	return len(armed)
}

// CancelCourse drops every armed reminder of a schedule.
func (p *Planner) CancelCourse(scheduleID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked(scheduleID)
}

func (p *Planner) cancelLocked(scheduleID string) {
	for _, t := range p.timers[scheduleID] {
		t.Stop()
	}
	delete(p.timers, scheduleID)
}

// RescheduleAll rebuilds the reminder set from persisted state, applying the
// current notification settings. With medication reminders disabled it only
// cancels.
func (p *Planner) RescheduleAll(ctx context.Context) error {
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	for id := range p.timers {
		p.cancelLocked(id)
	}
	p.mu.Unlock()

	if !settings.MedicationRemindersEnabled {
		return nil
	}

	snap, err := p.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	medByID := make(map[string]model.Medication, len(snap.Medications))
	for _, m := range snap.Medications {
		medByID[m.ID] = m
	}

	total := 0
	for _, s := range snap.Schedules {
		name := "Лекарство"
		if med, ok := medByID[s.MedicationID]; ok {
			name = med.Name
		}
		total += p.ScheduleCourse(s, name, settings.MinutesBeforeScheduledTime)
	}
	p.logger.Info("reminders rescheduled", zap.Int("armed", total))
	return nil
}

// CleanupExpired drops reminders of schedules that no longer exist or whose
// course ended before today.
func (p *Planner) CleanupExpired(ctx context.Context) {
	p.mu.Lock()
	ids := make([]string, 0, len(p.timers))
	for id := range p.timers {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	today := recurrence.FormatDate(p.now())
	for _, id := range ids {
		s, err := p.store.GetSchedule(ctx, id)
		if err != nil {
			p.CancelCourse(id)
			continue
		}
		// A course is expired once the day after its effective end has passed.
		if recurrence.AddDays(recurrence.EffectiveEnd(s), 1) < today {
			p.CancelCourse(id)
		}
	}
}

// LowStock dispatches an immediate refill reminder.
func (p *Planner) LowStock(medicationName string, remaining float64, unit string) {
	p.pool.Dispatch(Payload{
		Title: "Пора пополнить запас",
		Body:  fmt.Sprintf("У вас осталось всего %s %s %s", formatQuantity(remaining), units.Display(unit, remaining), medicationName),
		Data: map[string]any{
			"medicationName":    medicationName,
			"remainingQuantity": remaining,
		},
	})
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func splitTime(t string) (hh, mm int, ok bool) {
	if len(t) != 5 || t[2] != ':' {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(t[:2])
	m, err2 := strconv.Atoi(t[3:])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, m, true
}
