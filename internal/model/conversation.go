// Package model 包含了应用的数据模型定义。
package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表对话历史中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserContext 是调用方随请求提交的部分上下文，nil 字段表示未提供。
type UserContext struct {
	User *string `json:"user,omitempty"`
	// Pets 原样透传，仅统计数量。非 nil 的空切片表示清空。
	Pets []json.RawMessage `json:"pets,omitempty"`
}

// UnmarshalJSON 宽松解析调用方上下文，形状不符的字段不会导致请求失败：
// 非对象整体忽略；user 只接受字符串；pets 为 null 或非数组时视为空列表。
func (u *UserContext) UnmarshalJSON(data []byte) error {
	*u = UserContext{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	if raw, ok := fields["user"]; ok {
		var user string
		if err := json.Unmarshal(raw, &user); err == nil && string(raw) != "null" {
			u.User = &user
		}
	}
	if raw, ok := fields["pets"]; ok {
		var pets []json.RawMessage
		if err := json.Unmarshal(raw, &pets); err != nil || pets == nil {
			pets = []json.RawMessage{}
		}
		u.Pets = pets
	}
	return nil
}

// ConversationContext 是单个会话在内存或 Redis 中保存的上下文。
type ConversationContext struct {
	SessionID           string            `json:"-"`
	User                *string           `json:"user"`
	Pets                []json.RawMessage `json:"pets"`
	ConversationHistory []ChatMessage     `json:"conversation_history"`
	UpdatedAt           time.Time         `json:"-"`
}

// NewConversationContext 创建一个空的会话上下文。
func NewConversationContext(sessionID string) *ConversationContext {
	return &ConversationContext{
		SessionID:           sessionID,
		Pets:                []json.RawMessage{},
		ConversationHistory: []ChatMessage{},
	}
}

// Merge 浅合并调用方提供的字段，已提供的字段覆盖旧值。
func (c *ConversationContext) Merge(partial *UserContext) {
	if partial == nil {
		return
	}
	if partial.User != nil {
		user := *partial.User
		c.User = &user
	}
	if partial.Pets != nil {
		c.Pets = append([]json.RawMessage{}, partial.Pets...)
	}
}

// Append 追加一条历史消息，并只保留最近 limit 条。
func (c *ConversationContext) Append(msg ChatMessage, limit int) {
	c.ConversationHistory = append(c.ConversationHistory, msg)
	if limit > 0 && len(c.ConversationHistory) > limit {
		trimmed := make([]ChatMessage, limit)
		copy(trimmed, c.ConversationHistory[len(c.ConversationHistory)-limit:])
		c.ConversationHistory = trimmed
	}
}

// Clone 返回深拷贝，调用方可自由修改。
func (c *ConversationContext) Clone() *ConversationContext {
	out := *c
	if c.User != nil {
		user := *c.User
		out.User = &user
	}
	out.Pets = make([]json.RawMessage, len(c.Pets))
	for i, p := range c.Pets {
		out.Pets[i] = append(json.RawMessage(nil), p...)
	}
	out.ConversationHistory = append([]ChatMessage{}, c.ConversationHistory...)
	return &out
}

// ContextMeta 是随回复返回的轻量上下文信息。
type ContextMeta struct {
	PetsCount          int `json:"pets_count"`
	ConversationLength int `json:"conversation_length"`
}

// Reply 是 /api/ai/chat 的响应体。
type Reply struct {
	Type        string      `json:"type"`
	Message     string      `json:"message"`
	Suggestions []string    `json:"suggestions"`
	Context     ContextMeta `json:"context"`
}

// Exchange 代表归档的一次问答交互。
type Exchange struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;index;not null" json:"sessionId"`
	User      string    `gorm:"size:255" json:"user"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Category  string    `gorm:"size:16;not null" json:"category"`
	Rule      string    `gorm:"size:64" json:"rule"`
	PetsCount int       `json:"petsCount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Exchange) TableName() string {
	return "assistant_exchanges"
}

// ExchangeDTO 是归档列表接口的输出格式。
type ExchangeDTO struct {
	ID        uint      `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Rule      string    `json:"rule"`
	PetsCount int       `json:"petsCount"`
	CreatedAt LocalTime `json:"createdAt"`
}

// ToDTO 将归档记录转换为接口输出格式。
func (e Exchange) ToDTO() ExchangeDTO {
	return ExchangeDTO{
		ID:        e.ID,
		Question:  e.Question,
		Answer:    e.Answer,
		Category:  e.Category,
		Rule:      e.Rule,
		PetsCount: e.PetsCount,
		CreatedAt: LocalTime(e.CreatedAt),
	}
}
