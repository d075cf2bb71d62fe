// Package router 负责组装 Gin 路由。
package router

import (
	"vetcard-ai/internal/handler"
	"vetcard-ai/internal/middleware"
	"vetcard-ai/internal/realtime"
	"vetcard-ai/internal/service"
	"vetcard-ai/pkg/token"

	"github.com/gin-gonic/gin"
)

// Dependencies 汇总路由所需的服务。
type Dependencies struct {
	ServiceName      string
	CORSOrigins      []string
	SessionRequired  bool
	SocketPath       string
	SocketOrigins    []string
	SocketQueueSize  int
	Sessions         *token.SessionManager
	AssistantService service.AssistantService
	ExchangeService  service.ExchangeService
	Hub              *realtime.Hub
}

// New 创建路由引擎并注册所有路由。
func New(deps Dependencies) *gin.Engine {
	r := gin.New() // 不带默认中间件
	r.Use(middleware.RequestLogger(), middleware.Recovery(), middleware.CORS(deps.CORSOrigins))

	api := r.Group("/api")
	{
		api.GET("/health", handler.NewHealthHandler(deps.ServiceName).Health)

		assistantHandler := handler.NewAssistantHandler(deps.AssistantService, deps.ExchangeService)
		sessionHandler := handler.NewSessionHandler(deps.Sessions)

		ai := api.Group("/ai")
		ai.POST("/session", sessionHandler.Create)

		// 需要会话上下文的路由
		scoped := ai.Group("")
		scoped.Use(middleware.SessionMiddleware(deps.Sessions, deps.SessionRequired))
		{
			scoped.POST("/chat", assistantHandler.Chat)
			scoped.GET("/context", assistantHandler.GetContext)
			scoped.DELETE("/context", assistantHandler.ResetContext)
			scoped.GET("/exchanges", assistantHandler.ListExchanges)
		}
	}

	socketPath := deps.SocketPath
	if socketPath == "" {
		socketPath = "/socket"
	}
	r.GET(socketPath, handler.NewSocketHandler(deps.Hub, deps.SocketOrigins, deps.SocketQueueSize).Handle)

	return r
}
