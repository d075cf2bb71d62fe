// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"
	"vetcard-ai/pkg/log"
	"vetcard-ai/pkg/token"

	"github.com/gin-gonic/gin"
)

const (
	// SessionHeader 携带会话令牌的请求头。
	SessionHeader = "X-Session-Token"
	// SessionIDKey 是会话 ID 在 gin.Context 中的键，空字符串表示共享默认会话。
	SessionIDKey = "sessionId"
	// SessionClaimsKey 是令牌 claims 在 gin.Context 中的键。
	SessionClaimsKey = "sessionClaims"
)

// SessionMiddleware 从请求头解析会话令牌，并把会话 ID 存入上下文。
// 未携带令牌时使用共享默认会话，除非 required 为 true。
// X-Session-Token 无效返回 401；无法验证的 Bearer 令牌视为未携带。
func SessionMiddleware(sessions *token.SessionManager, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader(SessionHeader)
		fromBearer := false
		if tokenString == "" {
			const bearerPrefix = "Bearer "
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
				tokenString = strings.TrimPrefix(auth, bearerPrefix)
				fromBearer = true
			}
		}

		var claims *token.SessionClaims
		if tokenString != "" {
			var err error
			claims, err = sessions.Verify(tokenString)
			if err != nil {
				// Authorization 头可能携带其他服务签发的令牌，此时按未携带处理
				if !fromBearer {
					log.Warnf("SessionMiddleware: 会话令牌无效: %v", err)
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
					return
				}
				log.Debugw("SessionMiddleware: 忽略非会话 Bearer 令牌", "error", err)
				claims = nil
			}
		}

		if claims == nil {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session token is required"})
				return
			}
			c.Set(SessionIDKey, "")
			c.Next()
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		c.Set(SessionClaimsKey, claims)
		c.Next()
	}
}

// SessionID 返回当前请求的会话 ID。
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
