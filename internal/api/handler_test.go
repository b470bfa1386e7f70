package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nastya-andreeva/dailydose-server/config"
	"github.com/nastya-andreeva/dailydose-server/internal/db"
	"github.com/nastya-andreeva/dailydose-server/internal/model"
	"github.com/nastya-andreeva/dailydose-server/internal/store"
	"github.com/nastya-andreeva/dailydose-server/internal/tracker"
)

const testToken = "test-token"

// plannerSpy records planner calls; it also stands in for the tracker's
// low-stock notifier.
type plannerSpy struct {
	scheduled   []string
	cancelled   []string
	rescheduled int
	lowStock    []string
}

func (p *plannerSpy) ScheduleCourse(s model.Schedule, medicationName string, minutesBefore int) int {
	p.scheduled = append(p.scheduled, s.ID)
	return 0
}

func (p *plannerSpy) CancelCourse(scheduleID string) {
	p.cancelled = append(p.cancelled, scheduleID)
}

func (p *plannerSpy) RescheduleAll(ctx context.Context) error {
	p.rescheduled++
	return nil
}

func (p *plannerSpy) LowStock(medicationName string, remaining float64, unit string) {
	p.lowStock = append(p.lowStock, medicationName)
}

func setupAPI(t *testing.T) (*gin.Engine, store.Store, *plannerSpy) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(testDB))
	st := store.NewGormStore(testDB)

	spy := &plannerSpy{}
	logger := zap.NewNop()
	trk := tracker.NewService(st, spy, logger)
	h := NewHandler(st, trk, spy, &webpush.Options{VAPIDPublicKey: "test-public-key"}, logger)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Auth.Token = testToken

	return NewRouter(cfg, h), st, spy
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+testToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createMedication(t *testing.T, r *gin.Engine) model.Medication {
	w := doJSON(t, r, "POST", "/api/medications", gin.H{
		"name":              "Ибупрофен",
		"form":              "tablet",
		"dosagePerUnit":     "200 мг",
		"unit":              "таблетка",
		"trackStock":        true,
		"totalQuantity":     30,
		"remainingQuantity": 30,
		"lowStockThreshold": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Medication](t, w)
}

func createSchedule(t *testing.T, r *gin.Engine, medID string) model.Schedule {
	w := doJSON(t, r, "POST", "/api/schedules", gin.H{
		"medicationId": medID,
		"frequency":    "daily",
		"mealRelation": "after_meal",
		"startDate":    "2024-01-01",
		"endDate":      "2024-12-31",
		"times": []gin.H{
			{"time": "09:00", "dosage": "1", "unit": "таблетка"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Schedule](t, w)
}

func TestAuthRequired(t *testing.T) {
	r, _, _ := setupAPI(t)

	req, _ := http.NewRequest("GET", "/api/medications", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest("GET", "/api/medications", nil)
	req.Header.Set("Authorization", "Token wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthzIsOpen(t *testing.T) {
	r, _, _ := setupAPI(t)
	req, _ := http.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMedicationLifecycle(t *testing.T) {
	r, _, spy := setupAPI(t)

	med := createMedication(t, r)
	assert.NotEmpty(t, med.ID)

	w := doJSON(t, r, "GET", "/api/medications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Medication](t, w), 1)

	w = doJSON(t, r, "PATCH", "/api/medications/"+med.ID, gin.H{"name": "Нурофен"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Нурофен", decode[model.Medication](t, w).Name)

	sched := createSchedule(t, r, med.ID)
	assert.Contains(t, spy.scheduled, sched.ID, "creating a schedule arms reminders")

	w = doJSON(t, r, "DELETE", "/api/medications/"+med.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, spy.cancelled, sched.ID, "deleting the medication cancels its courses")

	w = doJSON(t, r, "GET", "/api/medications/"+med.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMedicationRejectsEmptyPatch(t *testing.T) {
	r, _, _ := setupAPI(t)
	med := createMedication(t, r)

	w := doJSON(t, r, "PATCH", "/api/medications/"+med.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftLifecycle(t *testing.T) {
	r, st, spy := setupAPI(t)
	med := createMedication(t, r)

	w := doJSON(t, r, "POST", "/api/drafts", gin.H{
		"medicationId": med.ID,
		"frequency":    "daily",
		"startDate":    "2024-03-01",
		"endDate":      "2024-03-10",
		"times":        []gin.H{{"time": "08:00", "dosage": "1", "unit": "таблетка"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[model.DraftSchedule](t, w)
	assert.Contains(t, draft.ID, "draft-")

	w = doJSON(t, r, "PATCH", "/api/drafts/"+draft.ID, gin.H{"endDate": "2024-03-20"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-20", decode[model.DraftSchedule](t, w).EndDate)

	w = doJSON(t, r, "POST", "/api/drafts/"+draft.ID+"/confirm", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sched := decode[model.Schedule](t, w)
	assert.NotContains(t, sched.ID, "draft-")
	assert.Contains(t, spy.scheduled, sched.ID, "confirming arms reminders")

	_, err := st.GetDraft(context.Background(), draft.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	w = doJSON(t, r, "GET", "/api/schedules/"+sched.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecordIntake(t *testing.T) {
	r, st, _ := setupAPI(t)
	med := createMedication(t, r)
	sched := createSchedule(t, r, med.ID)

	w := doJSON(t, r, "POST", "/api/intakes", gin.H{
		"scheduleId":   sched.ID,
		"medicationId": med.ID,
		"date":         "2024-01-05",
		"time":         "09:00",
		"status":       "taken",
		"dosage":       "1",
		"unit":         "таблетка",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	in := decode[model.Intake](t, w)
	assert.Equal(t, model.StatusTaken, in.Status)
	assert.NotNil(t, in.TakenAt)

	got, err := st.GetMedication(context.Background(), med.ID)
	require.NoError(t, err)
	assert.Equal(t, 29.0, got.RemainingQuantity)
}

func TestRecordIntakeDeletedSlotIsAccepted(t *testing.T) {
	r, _, _ := setupAPI(t)

	w := doJSON(t, r, "POST", "/api/intakes", gin.H{
		"scheduleId":   "sch-gone",
		"medicationId": "med-gone",
		"date":         "2024-01-05",
		"time":         "09:00",
		"status":       "taken",
		"dosage":       "1",
		"unit":         "таблетка",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecordIntakeRejectsBadStatus(t *testing.T) {
	r, _, _ := setupAPI(t)

	w := doJSON(t, r, "POST", "/api/intakes", gin.H{
		"scheduleId":   "s",
		"medicationId": "m",
		"date":         "2024-01-05",
		"time":         "09:00",
		"status":       "pending",
		"dosage":       "1",
		"unit":         "таблетка",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDayOccurrences(t *testing.T) {
	r, _, _ := setupAPI(t)
	med := createMedication(t, r)
	createSchedule(t, r, med.ID)

	w := doJSON(t, r, "GET", "/api/days/2024-06-15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	occs := decode[[]map[string]any](t, w)
	require.Len(t, occs, 1)
	assert.Equal(t, "pending", occs[0]["status"])
	assert.Equal(t, "Ибупрофен", occs[0]["name"])

	w = doJSON(t, r, "GET", "/api/days/not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoints(t *testing.T) {
	r, _, _ := setupAPI(t)
	med := createMedication(t, r)
	sched := createSchedule(t, r, med.ID)

	for _, rec := range []struct {
		date   string
		status string
	}{
		{"2024-01-05", "taken"},
		{"2024-01-06", "missed"},
	} {
		w := doJSON(t, r, "POST", "/api/intakes", gin.H{
			"scheduleId":   sched.ID,
			"medicationId": med.ID,
			"date":         rec.date,
			"time":         "09:00",
			"status":       rec.status,
			"dosage":       "1",
			"unit":         "таблетка",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.Equal(t, 2.0, stats["total"])
	assert.Equal(t, 1.0, stats["taken"])
	assert.Equal(t, 50.0, stats["adherenceRate"])

	w = doJSON(t, r, "GET", "/api/stats?days=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLowStockEndpoint(t *testing.T) {
	r, st, _ := setupAPI(t)
	med := createMedication(t, r)

	_, err := st.UpdateMedication(context.Background(), med.ID, map[string]any{"remaining_quantity": 3.0})
	require.NoError(t, err)

	w := doJSON(t, r, "GET", "/api/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	low := decode[[]model.Medication](t, w)
	require.Len(t, low, 1)
	assert.Equal(t, med.ID, low[0].ID)
}

func TestSettingsUpdateReschedules(t *testing.T) {
	r, _, spy := setupAPI(t)

	w := doJSON(t, r, "GET", "/api/settings/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[model.NotificationSettings](t, w)
	assert.True(t, settings.MedicationRemindersEnabled)
	assert.Equal(t, 10, settings.MinutesBeforeScheduledTime)

	w = doJSON(t, r, "PUT", "/api/settings/notifications", gin.H{
		"minutesBeforeScheduledTime": 30,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, decode[model.NotificationSettings](t, w).MinutesBeforeScheduledTime)
	assert.Equal(t, 1, spy.rescheduled)

	w = doJSON(t, r, "PUT", "/api/settings/notifications", gin.H{
		"minutesBeforeScheduledTime": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	r, _, _ := setupAPI(t)

	w := doJSON(t, r, "PUT", "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push",
		"p256dh":   "key",
		"auth":     "secret",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/api/subscriptions?endpoint=https://example.com/push", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "DELETE", "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, "GET", "/api/subscriptions?endpoint=https://example.com/push", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVAPIDPublicKey(t *testing.T) {
	r, _, _ := setupAPI(t)

	w := doJSON(t, r, "GET", "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-public-key", decode[map[string]string](t, w)["public_key"])
}
