package handler

import (
	"github.com/bitfantasy/agileboard/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RoleBoardAdmin may remove users.
const RoleBoardAdmin = "board_admin"

// RegisterRoutes mounts the API. jwtSecret empty leaves the API open.
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string) {
	r.GET("/health/live", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)

	v1 := r.Group("/api/v1")
	if jwtSecret != "" {
		v1.Use(middleware.JWTAuth(jwtSecret))
	}

	// 看板
	v1.GET("/board", h.Board.Get)
	v1.POST("/board/refresh", h.Board.Refresh)

	// 工作项
	items := v1.Group("/work-items")
	{
		items.GET("", h.WorkItem.List)
		items.POST("", h.WorkItem.Create)
		items.GET("/:id", h.WorkItem.Get)
		items.PATCH("/:id", h.WorkItem.Update)
		items.DELETE("/:id", h.WorkItem.Delete)
		items.POST("/:id/attachments", h.WorkItem.UploadAttachment)
		items.DELETE("/:id/attachments/*attachmentId", h.WorkItem.RemoveAttachment)
	}

	// 迭代
	sprints := v1.Group("/sprints")
	{
		sprints.GET("", h.Sprint.List)
		sprints.POST("", h.Sprint.Create)
		sprints.POST("/sync-by-date", h.Sprint.SyncByDate)
		sprints.PATCH("/:id", h.Sprint.Update)
		sprints.DELETE("/:id", h.Sprint.Delete)
		sprints.POST("/:id/select", h.Sprint.Select)
	}

	// 成员
	users := v1.Group("/users")
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.DELETE("/:id", middleware.RequireRole(RoleBoardAdmin), h.User.Delete)
	}

	// 统计
	stats := v1.Group("/analytics")
	{
		stats.GET("/tree", h.Analytics.Tree)
		stats.GET("/hierarchy-issues", h.Analytics.HierarchyIssues)
		stats.GET("/sprints", h.Analytics.Sprints)
		stats.GET("/workstreams", h.Analytics.Workstreams)
		stats.GET("/costs", h.Analytics.Costs)
		stats.GET("/timeline", h.Analytics.Timeline)
	}
	v1.GET("/costs/export", h.Analytics.ExportCosts)

	v1.GET("/sse/events", h.SSE.Stream)
}
