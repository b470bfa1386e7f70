package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/tracker"
)

// ListIntakes handles GET /api/intakes.
func (h *Handler) ListIntakes(c *gin.Context) {
	intakes, err := h.store.ListIntakes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, intakes)
}

type recordIntakeRequest struct {
	ScheduleID   string       `json:"scheduleId" binding:"required"`
	MedicationID string       `json:"medicationId" binding:"required"`
	Date         string       `json:"date" binding:"required"`
	Time         string       `json:"time" binding:"required"`
	Status       model.Status `json:"status" binding:"required"`
	Dosage       string       `json:"dosage" binding:"required"`
	Unit         string       `json:"unit" binding:"required"`
}

// RecordIntake handles POST /api/intakes. Recording the same slot again
// overwrites the stored status instead of duplicating. A slot whose schedule
// or medication has been deleted is accepted and ignored.
func (h *Handler) RecordIntake(c *gin.Context) {
	var req recordIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != model.StatusTaken && req.Status != model.StatusMissed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be taken or missed"})
		return
	}

	in, err := h.tracker.Record(c.Request.Context(), tracker.RecordParams{
		ScheduleID:   req.ScheduleID,
		MedicationID: req.MedicationID,
		Date:         req.Date,
		Time:         req.Time,
		Status:       req.Status,
		Dosage:       req.Dosage,
		Unit:         req.Unit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if in == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, in)
}
