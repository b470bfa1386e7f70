package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetNotificationSettings handles GET /api/settings/notifications.
func (h *Handler) GetNotificationSettings(c *gin.Context) {
	settings, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	MedicationRemindersEnabled *bool `json:"medicationRemindersEnabled"`
	MinutesBeforeScheduledTime *int  `json:"minutesBeforeScheduledTime"`
	LowStockRemindersEnabled   *bool `json:"lowStockRemindersEnabled"`
}

// UpdateNotificationSettings handles PUT /api/settings/notifications. Changed
// preferences take effect immediately: every pending reminder timer is rebuilt
// against the new lead time and enablement flags.
func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MinutesBeforeScheduledTime != nil && *req.MinutesBeforeScheduledTime < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutesBeforeScheduledTime must be non-negative"})
		return
	}

	settings, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.MedicationRemindersEnabled != nil {
		settings.MedicationRemindersEnabled = *req.MedicationRemindersEnabled
	}
	if req.MinutesBeforeScheduledTime != nil {
		settings.MinutesBeforeScheduledTime = *req.MinutesBeforeScheduledTime
	}
	if req.LowStockRemindersEnabled != nil {
		settings.LowStockRemindersEnabled = *req.LowStockRemindersEnabled
	}

	if err := h.store.SaveSettings(c.Request.Context(), &settings); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.planner.RescheduleAll(c.Request.Context()); err != nil {
		h.logger.Error("failed to rebuild reminders after settings change", zap.Error(err))
	}

	c.JSON(http.StatusOK, settings)
}
