package handler

import (
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/gin-gonic/gin"
)

// BoardHandler 看板快照
type BoardHandler struct {
	board *service.Board
}

func NewBoardHandler(board *service.Board) *BoardHandler {
	return &BoardHandler{board: board}
}

// Get GET /api/v1/board
func (h *BoardHandler) Get(c *gin.Context) {
	Success(c, h.board.Snapshot())
}

// Refresh POST /api/v1/board/refresh
func (h *BoardHandler) Refresh(c *gin.Context) {
	if err := h.board.Refresh(c.Request.Context()); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, h.board.Snapshot())
}
