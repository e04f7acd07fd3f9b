package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/auth"
	"github.com/hrcadm/cadencecase/internal/service"
)

func PostSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)

		var body service.SleepLogRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		app.Logger().Debugf("Parsed SleepLogRequest: %+v", body)

		if err := service.ValidateSleepLogRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		log, err := service.CreateSleepLog(c.Request.Context(), app.SleepRepo(), user, &body, app.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save log")
			return
		}

		HandleSuccessStatus(c, app.Logger(), http.StatusCreated, log, nil)
	}
}

func GetSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)

		logs, err := app.SleepRepo().ListSleepLogs(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch logs")
			return
		}

		service.SortNewestFirst(logs)
		HandleSuccess(c, app.Logger(), logs, map[string]any{"count": len(logs)})
	}
}

func PostSleepStart(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)

		active, err := service.StartSleep(c.Request.Context(), app.ActiveRepo(), user, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to start sleep")
			return
		}

		HandleSuccessStatus(c, app.Logger(), http.StatusCreated, active, nil)
	}
}

func PostSleepEnd(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)

		res, err := service.EndSleep(c.Request.Context(), app.ActiveRepo(), app.SleepRepo(), app.Analyzer(), user, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to end sleep")
			return
		}

		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func PutSleepQuality(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)

		var body service.QualityRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateQualityRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Quality must be between 1 and 5")
			return
		}

		res, err := service.RateSleep(c.Request.Context(), app.SleepRepo(), app.Analyzer(), user, c.Param("id"), &body)
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to rate sleep")
			return
		}

		HandleSuccess(c, app.Logger(), res, nil)
	}
}

func GetSleepStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)
		logs, err := app.SleepRepo().ListSleepLogs(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch logs for stats")
			return
		}

		stats := service.CalculateSleepStats(logs, app.Analyzer(), app.Config().StatsWindow)
		HandleSuccess(c, app.Logger(), stats, nil)
	}
}

func GetSleepAnalysis(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)

		report, err := service.AnalyzeSleep(c.Request.Context(), app.SleepRepo(), app.PatternRepo(), app.Analyzer(), user, app.Config().AnalysisWindow, app.Now())
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Failed to analyze sleep")
			return
		}

		HandleSuccess(c, app.Logger(), report, nil)
	}
}

// GetWeeklyReport returns the last seven days. ?format=text renders the
// plain-text report instead of JSON.
func GetWeeklyReport(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.UserFrom(c)
		logs, err := app.SleepRepo().ListSleepLogs(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch logs for weekly report")
			return
		}

		report := service.BuildWeeklyReport(logs, app.Analyzer(), app.Now())
		text := analysis.RenderWeekly(report)
		if c.Query("format") == "text" {
			c.String(http.StatusOK, text)
			return
		}
		HandleSuccess(c, app.Logger(), report, map[string]any{"text": text})
	}
}
