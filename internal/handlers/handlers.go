package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"instagram-dm-automation-go/internal/config"
	"instagram-dm-automation-go/internal/dispatcher"
	"instagram-dm-automation-go/internal/instagram"
	"instagram-dm-automation-go/internal/metrics"
	"instagram-dm-automation-go/internal/scheduler"
	"instagram-dm-automation-go/internal/store"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db         *gorm.DB
	dispatcher *dispatcher.Dispatcher
	store      *store.Store
	instagram  *instagram.Client
	scheduler  *scheduler.Scheduler
	metrics    *metrics.Metrics
	cfg        *config.InstagramConfig
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, d *dispatcher.Dispatcher, st *store.Store, ig *instagram.Client, s *scheduler.Scheduler, m *metrics.Metrics, cfg *config.InstagramConfig) *Handlers {
	return &Handlers{db: db, dispatcher: d, store: st, instagram: ig, scheduler: s, metrics: m, cfg: cfg}
}

// SetupRoutes registers all routes on the router
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/webhooks/instagram", h.VerifyWebhook)
	router.POST("/webhooks/instagram", h.HandleWebhook)

	api := router.Group("/api")
	{
		api.GET("/auth/login", h.AuthLogin)
		api.GET("/auth/callback", h.AuthCallback)

		api.GET("/accounts", h.GetAccounts)
		api.DELETE("/accounts/:id", h.DisconnectAccount)

		api.GET("/rules", h.GetRules)
		api.POST("/rules", h.CreateRule)
		api.GET("/rules/:id", h.GetRule)
		api.PUT("/rules/:id", h.UpdateRule)
		api.DELETE("/rules/:id", h.DeleteRule)
		api.POST("/rules/:id/enable", h.EnableRule)
		api.POST("/rules/:id/disable", h.DisableRule)

		api.GET("/conversations", h.GetConversations)
		api.GET("/conversations/:id/messages", h.GetMessages)
		api.POST("/conversations/:id/messages", h.SendMessage)

		api.GET("/logs", h.GetLogs)
		api.GET("/logs/:id", h.GetLog)
	}
}
