package handler

import (
	"net/http"
	"vetcard-ai/internal/realtime"
	"vetcard-ai/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SocketHandler 负责把 HTTP 请求升级为实时通道连接。
type SocketHandler struct {
	hub       *realtime.Hub
	upgrader  websocket.Upgrader
	queueSize int
}

// NewSocketHandler 创建一个新的 SocketHandler。allowOrigins 含 "*" 时允许所有来源。
func NewSocketHandler(hub *realtime.Hub, allowOrigins []string, queueSize int) *SocketHandler {
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[o] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return &SocketHandler{
		hub:       hub,
		queueSize: queueSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAll {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle 处理 GET /socket，连接断开前一直阻塞。
func (h *SocketHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		log.Error("WebSocket 升级失败", err)
		return
	}
	realtime.NewClient(h.hub, conn, h.queueSize).Serve()
}
