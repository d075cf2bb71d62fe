// Package realtime 实现基于 WebSocket 的房间订阅通道。
// 目前只处理 join_room / leave_room，Publish 作为后续实时推送的扩展点。
package realtime

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"vetcard-ai/pkg/log"
)

// Envelope 是通道上传输的消息帧。
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventJoinedRoom = "joined_room"
	EventLeftRoom   = "left_room"
	EventError      = "error"
)

// Hub 维护连接与房间的对应关系。
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub 创建一个空的 Hub。
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register 登记一个新连接。
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
	}
}

// Unregister 把连接移出所有房间并关闭其发送队列。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	rooms, ok := h.clients[c]
	if ok {
		for room := range rooms {
			h.removeLocked(c, room)
		}
		delete(h.clients, c)
	}
	h.mu.Unlock()

	if ok {
		c.closeSend()
	}
}

// Join 把连接加入房间，未登记的连接会被忽略。
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[c]
	if !ok {
		return false
	}
	rooms[room] = struct{}{}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	return true
}

// Leave 把连接移出房间，返回连接原本是否在房间内。
func (h *Hub) Leave(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[c]
	if !ok {
		return false
	}
	if _, in := rooms[room]; !in {
		return false
	}
	h.removeLocked(c, room)
	return true
}

func (h *Hub) removeLocked(c *Client, room string) {
	delete(h.clients[c], room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish 向房间内所有连接推送事件，返回成功入队的连接数。
// 发送队列已满的连接会被跳过。
func (h *Hub) Publish(room, event string, payload interface{}) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.enqueue(frame) {
			delivered++
		} else {
			log.Warnf("[Hub] 客户端 %s 发送队列已满，丢弃事件 %s", c.ID(), event)
		}
	}
	return delivered, nil
}

// RoomSize 返回房间内的连接数。
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Rooms 返回当前所有非空房间名，按字典序排列。
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// ClientCount 返回已登记的连接数。
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
