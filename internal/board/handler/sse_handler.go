package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/bitfantasy/agileboard/internal/board/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keepaliveInterval = 30 * time.Second

// SSEHandler handles SSE connections
type SSEHandler struct {
	hub    *sse.Hub
	board  *service.Board
	logger *zap.Logger
}

func NewSSEHandler(hub *sse.Hub, board *service.Board, logger *zap.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, board: board, logger: logger.Named("sse")}
}

// Stream handles the SSE endpoint. The current snapshot is sent right after
// the connected event, later ones as the board changes.
// GET /api/v1/sse/events?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := GetUserID(c)
	clientID := uuid.New().String()

	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan sse.Event, 64),
	}

	h.hub.Register(client)

	// Set SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: " + sse.EventConnected + "\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	if data, err := json.Marshal(h.board.Snapshot()); err == nil {
		c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", sse.EventSnapshot, data))
	} else {
		h.logger.Error("Encode snapshot failed", zap.Error(err))
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(keepaliveInterval)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
