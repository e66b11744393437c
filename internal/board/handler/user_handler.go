package handler

import (
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 成员处理器
type UserHandler struct {
	board *service.Board
}

func NewUserHandler(board *service.Board) *UserHandler {
	return &UserHandler{board: board}
}

// List GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	Success(c, gin.H{"items": h.board.Snapshot().Users})
}

// Create POST /api/v1/users (multipart: name, optional avatar)
func (h *UserHandler) Create(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		BadRequest(c, "name is required")
		return
	}

	var avatar *service.Upload
	if fh, err := c.FormFile("avatar"); err == nil {
		file, err := fh.Open()
		if err != nil {
			InternalError(c, "open upload: "+err.Error())
			return
		}
		defer file.Close()
		avatar = &service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        file,
		}
	}

	u, err := h.board.AddUser(c.Request.Context(), name, avatar)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, u)
}

// Delete DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.board.RemoveUser(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}
