package handler

import (
	"net/http"
	"vetcard-ai/pkg/log"
	"vetcard-ai/pkg/token"

	"github.com/gin-gonic/gin"
)

// SessionHandler 负责签发会话令牌。
type SessionHandler struct {
	sessions *token.SessionManager
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessions *token.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionRequest 定义了创建会话 API 的请求体结构，body 可以为空。
type SessionRequest struct {
	User string `json:"user"`
}

// Create 处理 POST /api/ai/session。
func (h *SessionHandler) Create(c *gin.Context) {
	var req SessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}
	}

	sessionID, signed, expiresAt, err := h.sessions.Issue(req.User)
	if err != nil {
		log.Error("Issue session token error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}

	log.Infof("Session issued: %s", sessionID)
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": sessionID,
		"token":     signed,
		"expiresAt": expiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}
