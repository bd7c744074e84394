package handler

import (
	"github.com/gin-gonic/gin"

	internalmiddleware "github.com/campusops/meetgen-api/internal/middleware"
	"github.com/campusops/meetgen-api/internal/service"
)

// RegisterRoutes mounts the API surface under /api/v1. All routes require a
// valid bearer token.
func RegisterRoutes(
	router *gin.Engine,
	authService *service.AuthService,
	generation *GenerationHandler,
	conflicts *ConflictHandler,
) {
	api := router.Group("/api/v1")
	api.Use(internalmiddleware.JWT(authService))

	details := api.Group("/offering-details")
	{
		details.POST("/:id/meetings/generate", generation.GeneratePlanForDetail)
		details.GET("/:id/meetings", generation.ListMeetingsForDetail)
		details.GET("/:id/conflicts/summary", conflicts.Summary)
	}

	meetings := api.Group("/meetings")
	{
		meetings.POST("/generate", generation.GeneratePlan)
		meetings.POST("/generate-batch", generation.GenerateBatch)
		meetings.GET("", generation.ListMeetings)
		meetings.GET("/export", generation.ExportMeetings)
		meetings.PATCH("/:id/lock", generation.SetLocked)
		meetings.POST("/:id/conflicts/scan", conflicts.ScanMeeting)
	}

	conflictGroup := api.Group("/conflicts")
	{
		conflictGroup.POST("/scan", conflicts.ScanAll)
		conflictGroup.GET("", conflicts.List)
		conflictGroup.GET("/summary", conflicts.Summary)
		conflictGroup.GET("/:id", conflicts.Get)
		conflictGroup.POST("/:id/resolve", conflicts.Resolve)
		conflictGroup.PATCH("/:id/status", conflicts.UpdateStatus)
	}
}
