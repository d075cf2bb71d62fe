package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler 提供存活探针。
type HealthHandler struct {
	serviceName string
}

// NewHealthHandler 创建一个新的 HealthHandler。
func NewHealthHandler(serviceName string) *HealthHandler {
	return &HealthHandler{serviceName: serviceName}
}

// Health 处理 GET /api/health。
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "service": h.serviceName})
}
