package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hrcadm/cadencecase/internal/analysis"
)

func GetTipCategories(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), analysis.TipCategories(), map[string]any{
			"general": analysis.GenericTips(),
		})
	}
}

func GetTips(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		tips, err := analysis.TipsFor(analysis.TipCategory(c.Param("category")))
		if err != nil {
			HandleServiceError(c, app.Logger(), err, "Unknown tip category")
			return
		}
		HandleSuccess(c, app.Logger(), tips, map[string]any{"category": c.Param("category")})
	}
}
