package handler

import (
	"github.com/bitfantasy/agileboard/internal/board/analytics"
	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/export"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 统计与导出
type AnalyticsHandler struct {
	board *service.Board
}

func NewAnalyticsHandler(board *service.Board) *AnalyticsHandler {
	return &AnalyticsHandler{board: board}
}

// Tree GET /api/v1/analytics/tree
func (h *AnalyticsHandler) Tree(c *gin.Context) {
	Success(c, gin.H{"roots": analytics.Tree(h.board.Snapshot().WorkItems)})
}

// HierarchyIssues GET /api/v1/analytics/hierarchy-issues
func (h *AnalyticsHandler) HierarchyIssues(c *gin.Context) {
	issues := analytics.HierarchyIssues(h.board.Snapshot().WorkItems)
	if issues == nil {
		issues = []analytics.Issue{}
	}
	Success(c, gin.H{"items": issues})
}

// Sprints GET /api/v1/analytics/sprints
func (h *AnalyticsHandler) Sprints(c *gin.Context) {
	s := h.board.Snapshot()
	Success(c, gin.H{"items": analytics.SprintSummaries(s.Sprints, s.WorkItems)})
}

// Workstreams GET /api/v1/analytics/workstreams
func (h *AnalyticsHandler) Workstreams(c *gin.Context) {
	progress := analytics.WorkstreamProgressOf(h.board.Snapshot().WorkItems)
	if progress == nil {
		progress = []analytics.WorkstreamProgress{}
	}
	Success(c, gin.H{"items": progress})
}

// Costs GET /api/v1/analytics/costs
func (h *AnalyticsHandler) Costs(c *gin.Context) {
	Success(c, analytics.Costs(h.board.Snapshot().WorkItems))
}

// Timeline GET /api/v1/analytics/timeline
func (h *AnalyticsHandler) Timeline(c *gin.Context) {
	entries := analytics.Timeline(h.board.Snapshot().WorkItems)
	if entries == nil {
		entries = []analytics.TimelineEntry{}
	}
	Success(c, gin.H{"items": entries})
}

// ExportCosts GET /api/v1/costs/export
func (h *AnalyticsHandler) ExportCosts(c *gin.Context) {
	s := h.board.Snapshot()
	f, filename, err := export.CostWorkbook(s.WorkItems, s.Users, s.Sprints, entity.Today())
	if err != nil {
		InternalError(c, "build workbook: "+err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
