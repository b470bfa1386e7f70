package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/store"
	"github.com/nastya-andreeva/dailydose-server/internal/tracker"
)

// ReminderPlanner is the slice of the notification planner the API drives on
// schedule and settings mutations.
type ReminderPlanner interface {
	ScheduleCourse(s model.Schedule, medicationName string, minutesBefore int) int
	CancelCourse(scheduleID string)
	RescheduleAll(ctx context.Context) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	tracker *tracker.Service
	planner ReminderPlanner
	webpush *webpush.Options
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, t *tracker.Service, p ReminderPlanner, webpushOptions *webpush.Options, logger *zap.Logger) *Handler {
	return &Handler{
		store:   s,
		tracker: t,
		planner: p,
		webpush: webpushOptions,
		logger:  logger,
	}
}

// fail maps store errors onto HTTP statuses and renders the typed error body.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// rearmCourse re-plans reminders for one schedule with current settings.
func (h *Handler) rearmCourse(ctx context.Context, s model.Schedule) {
	settings, err := h.store.GetSettings(ctx)
	if err != nil {
		h.logger.Error("failed to load settings while arming reminders", zap.Error(err))
		return
	}
	if !settings.MedicationRemindersEnabled {
		return
	}
	name := "Лекарство"
	if med, err := h.store.GetMedication(ctx, s.MedicationID); err == nil {
		name = med.Name
	}
	h.planner.ScheduleCourse(s, name, settings.MinutesBeforeScheduledTime)
}
