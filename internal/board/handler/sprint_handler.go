package handler

import (
	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/gin-gonic/gin"
)

// SprintHandler 迭代处理器
type SprintHandler struct {
	board *service.Board
}

func NewSprintHandler(board *service.Board) *SprintHandler {
	return &SprintHandler{board: board}
}

// List GET /api/v1/sprints
func (h *SprintHandler) List(c *gin.Context) {
	s := h.board.Snapshot()
	Success(c, gin.H{
		"items":            s.Sprints,
		"selectedSprintId": s.SelectedSprintID,
	})
}

// Create POST /api/v1/sprints
// An empty body creates the next sprint with defaults.
func (h *SprintHandler) Create(c *gin.Context) {
	var req entity.SprintPatch
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}
	s, err := h.board.CreateSprint(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, s)
}

// Update PATCH /api/v1/sprints/:id
func (h *SprintHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var req entity.SprintPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.board.UpdateSprint(c.Request.Context(), id, req); err != nil {
		ServiceError(c, err)
		return
	}
	if s, ok := h.board.Sprint(id); ok {
		Success(c, s)
		return
	}
	Success(c, nil)
}

// Delete DELETE /api/v1/sprints/:id
func (h *SprintHandler) Delete(c *gin.Context) {
	if err := h.board.DeleteSprint(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// Select POST /api/v1/sprints/:id/select
func (h *SprintHandler) Select(c *gin.Context) {
	if err := h.board.SelectSprint(c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"selectedSprintId": c.Param("id")})
}

// SyncByDate POST /api/v1/sprints/sync-by-date?policy=containment|start
func (h *SprintHandler) SyncByDate(c *gin.Context) {
	policy, err := service.ParseSyncPolicy(c.Query("policy"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	report, err := h.board.SyncSprintsByDate(c.Request.Context(), policy)
	if err != nil && report.Updated == 0 && report.Failed == 0 {
		ServiceError(c, err)
		return
	}
	// Partial failures are already alerted; the report carries the count.
	Success(c, report)
}
