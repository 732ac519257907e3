package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/obi2na/courier/config"
	"github.com/obi2na/courier/internal/api/announcement"
	"github.com/obi2na/courier/internal/logger"
	"github.com/obi2na/courier/internal/middleware"
	"github.com/obi2na/courier/internal/service/bootstrap"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

func RegisterRoutes(r *gin.Engine, container *bootstrap.ServiceContainer, cfg config.AppConfig) {
	r.Use(middleware.RequestIDMiddleware(), middleware.CORSMiddleware(cfg.CORS))

	r.GET(HealthPath, appHealth)
	r.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{})))

	apiGroup := r.Group("/api", middleware.AuthMiddleware(cfg.Auth))
	announcement.RegisterAnnouncementRoutes(apiGroup, container.AnnouncementSvc)
}

func appHealth(c *gin.Context) {
	ctx := c.Request.Context()
	logger.With(ctx).Info("Health check requested")
	c.JSON(http.StatusOK, gin.H{
		"status": "Courier is healthy",
	})
}
