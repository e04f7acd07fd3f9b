package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrcadm/cadencecase/internal/auth"
	"github.com/hrcadm/cadencecase/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires middleware and routes. /healthz and /metrics skip auth.
func NewRouter(app App, provider auth.Provider) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()), metrics.NewMetrics().GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sleep := r.Group("/sleep", auth.AuthMiddleware(provider, app.Config()))
	sleep.POST("", PostSleep(app))
	sleep.GET("", GetSleep(app))
	sleep.POST("/start", PostSleepStart(app))
	sleep.POST("/end", PostSleepEnd(app))
	sleep.PUT("/:id/quality", PutSleepQuality(app))
	sleep.GET("/stats", GetSleepStats(app))
	sleep.GET("/analysis", GetSleepAnalysis(app))
	sleep.GET("/report/weekly", GetWeeklyReport(app))
	sleep.GET("/tips", GetTipCategories(app))
	sleep.GET("/tips/:category", GetTips(app))

	return r
}
