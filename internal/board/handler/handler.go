package handler

import (
	"errors"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/repository"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/bitfantasy/agileboard/internal/board/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Board     *BoardHandler
	WorkItem  *WorkItemHandler
	Sprint    *SprintHandler
	User      *UserHandler
	Analytics *AnalyticsHandler
	SSE       *SSEHandler
	Health    *HealthHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(board *service.Board, hub *sse.Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		Board:     NewBoardHandler(board),
		WorkItem:  NewWorkItemHandler(board),
		Sprint:    NewSprintHandler(board),
		User:      NewUserHandler(board),
		Analytics: NewAnalyticsHandler(board),
		SSE:       NewSSEHandler(hub, board, logger),
		Health:    NewHealthHandler(board),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// 业务错误码
const (
	CodeBadRequest     = 40000
	CodeNotFound       = 40400
	CodeSchemaMismatch = 42200
	CodeInternal       = 50000
	CodeNotConfigured  = 50300
)

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternal, message)
}

// ServiceError maps a board error onto the response codes.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		Error(c, CodeNotConfigured, "setup required: "+err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, entity.ErrInvalidField):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, repository.ErrSchemaMismatch):
		Error(c, CodeSchemaMismatch, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
