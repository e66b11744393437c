package handler

import (
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	board *service.Board
}

func NewHealthHandler(board *service.Board) *HealthHandler {
	return &HealthHandler{board: board}
}

// Live GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// Ready GET /health/ready
// An unconfigured board is still ready: it serves the setup state.
func (h *HealthHandler) Ready(c *gin.Context) {
	s := h.board.Snapshot()
	c.JSON(200, gin.H{
		"status":     "ok",
		"configured": s.Configured,
		"loading":    s.Loading,
	})
}
