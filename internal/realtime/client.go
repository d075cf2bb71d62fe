package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
	"vetcard-ai/pkg/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	maxRoomNameLen = 128
)

// Client 是一个通道连接。所有写操作都经由发送队列交给 writePump。
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient 创建一个连接，conn 可以为 nil（仅用于 Hub 的单元测试）。
func NewClient(hub *Hub, conn *websocket.Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, queueSize),
	}
}

// ID 返回连接的唯一标识。
func (c *Client) ID() string {
	return c.id
}

func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("[Socket] 序列化回执失败", err)
		return
	}
	frame, _ := json.Marshal(Envelope{Event: event, Data: data})
	if !c.enqueue(frame) {
		log.Warnf("[Socket] 客户端 %s 发送队列已满，丢弃回执 %s", c.id, event)
	}
}

// Serve 登记连接并阻塞运行读循环，连接断开后把它移出所有房间。
func (c *Client) Serve() {
	c.hub.Register(c)
	log.Infof("[Socket] 新连接: %s", c.id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()

	c.readPump()
	c.hub.Unregister(c)
	<-done
	log.Infof("[Socket] 连接断开: %s", c.id)
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[Socket] 读取消息失败: %v", err)
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.reply(EventError, map[string]string{"message": "invalid frame"})
		return
	}

	switch env.Event {
	case EventJoinRoom, EventLeaveRoom:
		room, ok := roomName(env.Data)
		if !ok {
			c.reply(EventError, map[string]string{"message": "room name is required"})
			return
		}
		if env.Event == EventJoinRoom {
			c.hub.Join(c, room)
			log.Infof("[Socket] %s 加入房间: %s", c.id, room)
			c.reply(EventJoinedRoom, map[string]string{"room": room})
		} else {
			c.hub.Leave(c, room)
			log.Infof("[Socket] %s 离开房间: %s", c.id, room)
			c.reply(EventLeftRoom, map[string]string{"room": room})
		}
	default:
		c.reply(EventError, map[string]string{"message": "unknown event: " + env.Event})
	}
}

// roomName 接受字符串或 {"room": "..."} 两种写法。
func roomName(data json.RawMessage) (string, bool) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		var obj struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", false
		}
		room = obj.Room
	}
	room = strings.TrimSpace(room)
	if room == "" || len(room) > maxRoomNameLen {
		return "", false
	}
	return room, true
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warnf("[Socket] 写入消息失败: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
