package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nastya-andreeva/dailydose-server/internal/adherence"
	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/occurrence"
	"github.com/nastya-andreeva/dailydose-server/internal/recurrence"
)

// markedWeeks is the sliding window, in weeks on each side of the requested
// date, scanned for calendar markers.
const markedWeeks = 2

func validDate(s string) bool {
	_, err := recurrence.ParseDate(s)
	return err == nil
}

// DayOccurrences handles GET /api/days/:date: every dose slot of the date,
// merged with the intake log and sorted by time of day.
func (h *Handler) DayOccurrences(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	occs := occurrence.ForDate(date, snap.Medications, snap.Schedules, snap.Intakes)
	if occs == nil {
		occs = []occurrence.Occurrence{}
	}
	occurrence.SortByTime(occs)
	c.JSON(http.StatusOK, occs)
}

// CalendarWeek handles GET /api/calendar/week?date=: the Monday-starting
// week containing the date, one (possibly empty) occurrence list per day.
func (h *Handler) CalendarWeek(c *gin.Context) {
	date := c.DefaultQuery("date", recurrence.FormatDate(time.Now()))
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, occurrence.Week(date, snap.Medications, snap.Schedules, snap.Intakes))
}

// CalendarMarks handles GET /api/calendar/marks?date=: for each day of a
// two-week window on each side with at least one dose, the worst status
// present that day.
func (h *Handler) CalendarMarks(c *gin.Context) {
	date := c.DefaultQuery("date", recurrence.FormatDate(time.Now()))
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	marks := occurrence.MarkedDates(date, markedWeeks, markedWeeks, snap.Medications, snap.Schedules, snap.Intakes)
	c.JSON(http.StatusOK, marks)
}

func windowDays(c *gin.Context, def int) (int, bool) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(def)))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
		return 0, false
	}
	return days, true
}

// Stats handles GET /api/stats?days= (0 or absent means all time).
func (h *Handler) Stats(c *gin.Context) {
	days, ok := windowDays(c, 0)
	if !ok {
		return
	}
	intakes, err := h.store.ListIntakes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, adherence.Compute(intakes, time.Now(), days))
}

// AdherenceByMedication handles GET /api/stats/by-medication?days=.
func (h *Handler) AdherenceByMedication(c *gin.Context) {
	days, ok := windowDays(c, 7)
	if !ok {
		return
	}
	intakes, err := h.store.ListIntakes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	rows := adherence.ByMedication(intakes, time.Now(), days)
	if rows == nil {
		rows = []adherence.MedicationAdherence{}
	}
	c.JSON(http.StatusOK, rows)
}

// AdherenceByDay handles GET /api/stats/by-day?days=.
func (h *Handler) AdherenceByDay(c *gin.Context) {
	days, ok := windowDays(c, 7)
	if !ok {
		return
	}
	intakes, err := h.store.ListIntakes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, adherence.ByDay(intakes, time.Now(), days))
}

// LowStockMedications handles GET /api/inventory/low-stock.
func (h *Handler) LowStockMedications(c *gin.Context) {
	meds, err := h.store.ListMedications(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	low := adherence.LowStock(meds)
	if low == nil {
		low = []model.Medication{}
	}
	c.JSON(http.StatusOK, low)
}
