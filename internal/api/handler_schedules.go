package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

type scheduleRequest struct {
	MedicationID string             `json:"medicationId" binding:"required"`
	Times        []model.TimeSlot   `json:"times" binding:"required,min=1"`
	Frequency    model.Frequency    `json:"frequency" binding:"required"`
	Days         []int              `json:"days"`
	Dates        []string           `json:"dates"`
	MealRelation model.MealRelation `json:"mealRelation"`
	StartDate    string             `json:"startDate" binding:"required"`
	EndDate      string             `json:"endDate"`
	DurationDays int                `json:"durationDays"`
}

func (r scheduleRequest) schedule(id string) model.Schedule {
	return model.Schedule{
		ID:           id,
		MedicationID: r.MedicationID,
		Times:        r.Times,
		Frequency:    r.Frequency,
		Days:         r.Days,
		Dates:        r.Dates,
		MealRelation: r.MealRelation,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		DurationDays: r.DurationDays,
	}
}

// ListSchedules handles GET /api/schedules.
func (h *Handler) ListSchedules(c *gin.Context) {
	schedules, err := h.store.ListSchedules(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

// GetSchedule handles GET /api/schedules/:id.
func (h *Handler) GetSchedule(c *gin.Context) {
	s, err := h.store.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// CreateSchedule handles POST /api/schedules and arms its reminders.
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := req.schedule("")
	if err := h.store.CreateSchedule(c.Request.Context(), &s); err != nil {
		h.fail(c, err)
		return
	}
	h.rearmCourse(c.Request.Context(), s)
	c.JSON(http.StatusCreated, s)
}

type schedulePatch struct {
	Times        *[]model.TimeSlot   `json:"times"`
	Frequency    *model.Frequency    `json:"frequency"`
	Days         *[]int              `json:"days"`
	Dates        *[]string           `json:"dates"`
	MealRelation *model.MealRelation `json:"mealRelation"`
	StartDate    *string             `json:"startDate"`
	EndDate      *string             `json:"endDate"`
	DurationDays *int                `json:"durationDays"`
}

func (p schedulePatch) apply(s *model.Schedule) {
	if p.Times != nil {
		s.Times = *p.Times
	}
	if p.Frequency != nil {
		s.Frequency = *p.Frequency
	}
	if p.Days != nil {
		s.Days = *p.Days
	}
	if p.Dates != nil {
		s.Dates = *p.Dates
	}
	if p.MealRelation != nil {
		s.MealRelation = *p.MealRelation
	}
	if p.StartDate != nil {
		s.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = *p.EndDate
	}
	if p.DurationDays != nil {
		s.DurationDays = *p.DurationDays
	}
}

// UpdateSchedule handles PATCH /api/schedules/:id. Reminders are re-armed
// from the updated recurrence.
func (h *Handler) UpdateSchedule(c *gin.Context) {
	var patch schedulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	s, err := h.store.GetSchedule(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	patch.apply(&s)
	if err := h.store.SaveSchedule(ctx, &s); err != nil {
		h.fail(c, err)
		return
	}
	h.rearmCourse(ctx, s)
	c.JSON(http.StatusOK, s)
}

// DeleteSchedule handles DELETE /api/schedules/:id. Recorded intakes stay
// behind as orphans unless keep_history=false.
func (h *Handler) DeleteSchedule(c *gin.Context) {
	id := c.Param("id")
	keepHistory := c.DefaultQuery("keep_history", "true") != "false"

	if err := h.store.DeleteSchedule(c.Request.Context(), id, keepHistory); err != nil {
		h.fail(c, err)
		return
	}
	h.planner.CancelCourse(id)
	c.Status(http.StatusNoContent)
}

// ListScheduleIntakes handles GET /api/schedules/:id/intakes.
func (h *Handler) ListScheduleIntakes(c *gin.Context) {
	intakes, err := h.store.ListIntakesForSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, intakes)
}

// CreateDraft handles POST /api/drafts. Drafts hold a schedule being edited;
// they never produce occurrences or reminders until confirmed.
func (h *Handler) CreateDraft(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := req.schedule("")
	d := model.DraftSchedule{
		ID:           "draft-" + uuid.NewString(),
		MedicationID: s.MedicationID,
		Times:        s.Times,
		Frequency:    s.Frequency,
		Days:         s.Days,
		Dates:        s.Dates,
		MealRelation: s.MealRelation,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		DurationDays: s.DurationDays,
	}
	if err := h.store.SaveDraft(c.Request.Context(), &d); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// GetDraft handles GET /api/drafts/:id.
func (h *Handler) GetDraft(c *gin.Context) {
	d, err := h.store.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// UpdateDraft handles PATCH /api/drafts/:id.
func (h *Handler) UpdateDraft(c *gin.Context) {
	var patch schedulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	d, err := h.store.GetDraft(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	s := d.Schedule(d.ID)
	patch.apply(&s)
	d.Times = s.Times
	d.Frequency = s.Frequency
	d.Days = s.Days
	d.Dates = s.Dates
	d.MealRelation = s.MealRelation
	d.StartDate = s.StartDate
	d.EndDate = s.EndDate
	d.DurationDays = s.DurationDays
	if err := h.store.SaveDraft(ctx, &d); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeleteDraft handles DELETE /api/drafts/:id.
func (h *Handler) DeleteDraft(c *gin.Context) {
	if err := h.store.DeleteDraft(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConfirmDraft handles POST /api/drafts/:id/confirm: the draft becomes a
// live schedule with reminders armed.
func (h *Handler) ConfirmDraft(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.store.ConfirmDraft(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.rearmCourse(ctx, s)
	c.JSON(http.StatusCreated, s)
}
