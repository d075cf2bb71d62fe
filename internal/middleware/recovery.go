package middleware

import (
	"net/http"
	"vetcard-ai/pkg/log"

	"github.com/gin-gonic/gin"
)

// Recovery 捕获 panic 并返回统一的 500 响应，不暴露内部细节。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Errorf("请求处理发生 panic: path=%s, err=%v", c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
