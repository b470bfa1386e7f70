package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/nastya-andreeva/dailydose-server/config"
	"github.com/nastya-andreeva/dailydose-server/internal/metrics"
	"github.com/nastya-andreeva/dailydose-server/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, h *Handler) *gin.Engine {
	r := gin.Default()
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	api.Use(mw.Auth(cfg.Auth.Token))
	{
		api.GET("/medications", h.ListMedications)
		api.POST("/medications", h.CreateMedication)
		api.GET("/medications/:id", h.GetMedication)
		api.PATCH("/medications/:id", h.UpdateMedication)
		api.DELETE("/medications/:id", h.DeleteMedication)
		api.GET("/medications/:id/schedules", h.ListMedicationSchedules)
		api.GET("/medications/:id/intakes", h.ListMedicationIntakes)

		api.GET("/schedules", h.ListSchedules)
		api.POST("/schedules", h.CreateSchedule)
		api.GET("/schedules/:id", h.GetSchedule)
		api.PATCH("/schedules/:id", h.UpdateSchedule)
		api.DELETE("/schedules/:id", h.DeleteSchedule)
		api.GET("/schedules/:id/intakes", h.ListScheduleIntakes)

		api.POST("/drafts", h.CreateDraft)
		api.GET("/drafts/:id", h.GetDraft)
		api.PATCH("/drafts/:id", h.UpdateDraft)
		api.DELETE("/drafts/:id", h.DeleteDraft)
		api.POST("/drafts/:id/confirm", h.ConfirmDraft)

		api.GET("/intakes", h.ListIntakes)
		api.POST("/intakes", h.RecordIntake)

		api.GET("/days/:date", h.DayOccurrences)
		api.GET("/calendar/week", caching, h.CalendarWeek)
		api.GET("/calendar/marks", caching, h.CalendarMarks)

		api.GET("/stats", caching, h.Stats)
		api.GET("/stats/by-medication", caching, h.AdherenceByMedication)
		api.GET("/stats/by-day", caching, h.AdherenceByDay)
		api.GET("/inventory/low-stock", h.LowStockMedications)

		api.GET("/settings/notifications", h.GetNotificationSettings)
		api.PUT("/settings/notifications", h.UpdateNotificationSettings)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
