package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

type medicationRequest struct {
	Name              string     `json:"name" binding:"required"`
	Form              model.Form `json:"form" binding:"required"`
	DosagePerUnit     string     `json:"dosagePerUnit"`
	Unit              string     `json:"unit" binding:"required"`
	Instructions      string     `json:"instructions"`
	TotalQuantity     float64    `json:"totalQuantity"`
	RemainingQuantity float64    `json:"remainingQuantity"`
	LowStockThreshold float64    `json:"lowStockThreshold"`
	TrackStock        bool       `json:"trackStock"`
	IconName          string     `json:"iconName"`
	IconColor         string     `json:"iconColor"`
}

// ListMedications handles GET /api/medications.
func (h *Handler) ListMedications(c *gin.Context) {
	meds, err := h.store.ListMedications(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meds)
}

// GetMedication handles GET /api/medications/:id.
func (h *Handler) GetMedication(c *gin.Context) {
	med, err := h.store.GetMedication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, med)
}

// CreateMedication handles POST /api/medications.
func (h *Handler) CreateMedication(c *gin.Context) {
	var req medicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	med := model.Medication{
		Name:              req.Name,
		Form:              req.Form,
		DosagePerUnit:     req.DosagePerUnit,
		Unit:              req.Unit,
		Instructions:      req.Instructions,
		TotalQuantity:     req.TotalQuantity,
		RemainingQuantity: req.RemainingQuantity,
		LowStockThreshold: req.LowStockThreshold,
		TrackStock:        req.TrackStock,
		IconName:          req.IconName,
		IconColor:         req.IconColor,
	}
	if err := h.store.CreateMedication(c.Request.Context(), &med); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, med)
}

type medicationPatch struct {
	Name              *string  `json:"name"`
	DosagePerUnit     *string  `json:"dosagePerUnit"`
	Unit              *string  `json:"unit"`
	Instructions      *string  `json:"instructions"`
	TotalQuantity     *float64 `json:"totalQuantity"`
	RemainingQuantity *float64 `json:"remainingQuantity"`
	LowStockThreshold *float64 `json:"lowStockThreshold"`
	TrackStock        *bool    `json:"trackStock"`
	IconName          *string  `json:"iconName"`
	IconColor         *string  `json:"iconColor"`
}

func (p medicationPatch) columns() map[string]any {
	updates := make(map[string]any)
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.DosagePerUnit != nil {
		updates["dosage_per_unit"] = *p.DosagePerUnit
	}
	if p.Unit != nil {
		updates["unit"] = *p.Unit
	}
	if p.Instructions != nil {
		updates["instructions"] = *p.Instructions
	}
	if p.TotalQuantity != nil {
		updates["total_quantity"] = *p.TotalQuantity
	}
	if p.RemainingQuantity != nil {
		updates["remaining_quantity"] = *p.RemainingQuantity
	}
	if p.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *p.LowStockThreshold
	}
	if p.TrackStock != nil {
		updates["track_stock"] = *p.TrackStock
	}
	if p.IconName != nil {
		updates["icon_name"] = *p.IconName
	}
	if p.IconColor != nil {
		updates["icon_color"] = *p.IconColor
	}
	return updates
}

// UpdateMedication handles PATCH /api/medications/:id. The whole updated
// record comes back so callers can reconcile their snapshot on success only.
func (h *Handler) UpdateMedication(c *gin.Context) {
	var patch medicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := patch.columns()
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	med, err := h.store.UpdateMedication(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, med)
}

// DeleteMedication handles DELETE /api/medications/:id. History is kept
// unless keep_history=false; cancelled schedules lose their reminders either
// way.
func (h *Handler) DeleteMedication(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	keepHistory := c.DefaultQuery("keep_history", "true") != "false"

	schedules, err := h.store.ListSchedulesForMedication(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.DeleteMedication(ctx, id, keepHistory); err != nil {
		h.fail(c, err)
		return
	}
	for _, s := range schedules {
		h.planner.CancelCourse(s.ID)
	}
	c.Status(http.StatusNoContent)
}

// ListMedicationSchedules handles GET /api/medications/:id/schedules.
func (h *Handler) ListMedicationSchedules(c *gin.Context) {
	schedules, err := h.store.ListSchedulesForMedication(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

// ListMedicationIntakes handles GET /api/medications/:id/intakes with an
// optional schedule_id filter.
func (h *Handler) ListMedicationIntakes(c *gin.Context) {
	intakes, err := h.store.ListIntakesForMedication(c.Request.Context(), c.Param("id"), c.Query("schedule_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, intakes)
}
