package app

import (
	"time"

	"AgriConnect/pkg/health"
	"AgriConnect/pkg/logger"
	"AgriConnect/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const (
	serviceName      = "agri-webhook"
	readinessTimeout = 2 * time.Second
)

func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(logger.CorrelationMiddleware(), metrics.GinMiddleware(), logger.GinRequestLogger(), gin.Recovery())
	return engine
}

func setUpProbes(engine *gin.Engine, registry *health.Registry) {
	engine.GET("/health/live", health.LivenessHandler(serviceName, time.Now()))
	engine.GET("/health/ready", health.ReadinessHandler(registry, readinessTimeout))
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}
