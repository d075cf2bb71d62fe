// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"vetcard-ai/internal/middleware"
	"vetcard-ai/internal/model"
	"vetcard-ai/internal/service"
	"vetcard-ai/pkg/log"

	"github.com/gin-gonic/gin"
)

const (
	errMessageRequired = "Message is required"
	errInternal        = "Internal server error"
	// 返回给客户端的通用错误描述，不包含内部细节
	errProcessingMessage = "Произошла ошибка при обработке сообщения"
)

// AssistantHandler 处理对话助手相关的 API 请求。
type AssistantHandler struct {
	assistantService service.AssistantService
	exchangeService  service.ExchangeService
}

// NewAssistantHandler 创建一个新的 AssistantHandler。
func NewAssistantHandler(assistantService service.AssistantService, exchangeService service.ExchangeService) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		exchangeService:  exchangeService,
	}
}

// ChatRequest 定义了聊天 API 的请求体结构。字段先按原始 JSON 读取，
// 以便区分“缺少 message”与其他格式错误。
type ChatRequest struct {
	Message     json.RawMessage `json:"message"`
	UserContext json.RawMessage `json:"userContext"`
}

func parseMessage(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		return "", false
	}
	return message, true
}

// parseUserContext 不会因上下文形状拒绝请求，见 model.UserContext.UnmarshalJSON。
func parseUserContext(raw json.RawMessage) *model.UserContext {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var uc model.UserContext
	if err := json.Unmarshal(raw, &uc); err != nil {
		log.Warnf("Chat: 忽略无法解析的 userContext, error: %v", err)
		return nil
	}
	return &uc
}

// Chat 处理 POST /api/ai/chat。
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errMessageRequired})
		return
	}
	message, ok := parseMessage(req.Message)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMessageRequired})
		return
	}
	userContext := parseUserContext(req.UserContext)

	reply, err := h.assistantService.ProcessMessage(c.Request.Context(), middleware.SessionID(c), message, userContext)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errMessageRequired})
			return
		}
		log.Error("AI Chat error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   errInternal,
			"message": errProcessingMessage,
		})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// GetContext 处理 GET /api/ai/context，返回当前会话的原始上下文。
func (h *AssistantHandler) GetContext(c *gin.Context) {
	conv, err := h.assistantService.GetContext(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		log.Error("Get context error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ResetContext 处理 DELETE /api/ai/context。
func (h *AssistantHandler) ResetContext(c *gin.Context) {
	if err := h.assistantService.ResetContext(c.Request.Context(), middleware.SessionID(c)); err != nil {
		log.Error("Reset context error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListExchanges 处理 GET /api/ai/exchanges，返回当前会话的归档问答。
func (h *AssistantHandler) ListExchanges(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	exchanges, err := h.exchangeService.ListExchanges(c.Request.Context(), middleware.SessionID(c), limit)
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Exchange archive is disabled"})
			return
		}
		log.Error("List exchanges error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": exchanges})
}
