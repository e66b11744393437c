package handler

import (
	"strings"

	"github.com/bitfantasy/agileboard/internal/board/analytics"
	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/gin-gonic/gin"
)

// WorkItemHandler 工作项处理器
type WorkItemHandler struct {
	board *service.Board
}

func NewWorkItemHandler(board *service.Board) *WorkItemHandler {
	return &WorkItemHandler{board: board}
}

// List GET /api/v1/work-items
// Filters: type, status, column (repeatable), sprint ("backlog" for none),
// assignee, workstream, blocked=true, q. Sorting: sort, order=desc.
func (h *WorkItemHandler) List(c *gin.Context) {
	f := analytics.Filter{
		AssigneeID:   c.Query("assignee"),
		WorkstreamID: c.Query("workstream"),
		BlockedOnly:  c.Query("blocked") == "true",
		Text:         c.Query("q"),
	}
	for _, v := range c.QueryArray("type") {
		f.Types = append(f.Types, entity.WorkItemType(v))
	}
	for _, v := range c.QueryArray("status") {
		f.Statuses = append(f.Statuses, entity.ItemStatus(v))
	}
	for _, v := range c.QueryArray("column") {
		f.Columns = append(f.Columns, entity.Column(v))
	}
	if sprint, ok := c.GetQuery("sprint"); ok {
		if sprint == "backlog" {
			sprint = ""
		}
		f.SprintID = &sprint
	}

	items := analytics.Apply(h.board.Snapshot().WorkItems, f)
	if key := c.Query("sort"); key != "" {
		analytics.Sort(items, analytics.SortKey(key), strings.EqualFold(c.Query("order"), "desc"))
	}
	Success(c, gin.H{"items": items, "total": len(items)})
}

// Get GET /api/v1/work-items/:id
func (h *WorkItemHandler) Get(c *gin.Context) {
	w, ok := h.board.WorkItem(c.Param("id"))
	if !ok {
		NotFound(c, "work item not found")
		return
	}
	Success(c, w)
}

// Create POST /api/v1/work-items
func (h *WorkItemHandler) Create(c *gin.Context) {
	var req entity.WorkItem
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	w, err := h.board.CreateWorkItem(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, w)
}

// Update PATCH /api/v1/work-items/:id
func (h *WorkItemHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var patch entity.WorkItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.board.UpdateWorkItem(c.Request.Context(), id, patch); err != nil {
		ServiceError(c, err)
		return
	}
	if w, ok := h.board.WorkItem(id); ok {
		Success(c, w)
		return
	}
	Success(c, nil)
}

// Delete DELETE /api/v1/work-items/:id
func (h *WorkItemHandler) Delete(c *gin.Context) {
	if err := h.board.DeleteWorkItem(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// UploadAttachment POST /api/v1/work-items/:id/attachments
func (h *WorkItemHandler) UploadAttachment(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer file.Close()

	att, err := h.board.UploadAttachment(c.Request.Context(), c.Param("id"), service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, att)
}

// RemoveAttachment DELETE /api/v1/work-items/:id/attachments/*attachmentId
// The attachment id is the object path and contains slashes.
func (h *WorkItemHandler) RemoveAttachment(c *gin.Context) {
	attachmentID := strings.TrimPrefix(c.Param("attachmentId"), "/")
	if attachmentID == "" {
		BadRequest(c, "attachment id is required")
		return
	}
	if err := h.board.RemoveAttachment(c.Request.Context(), c.Param("id"), attachmentID); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}
