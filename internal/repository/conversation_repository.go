// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"vetcard-ai/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrConcurrentUpdate 表示多次重试后仍与其他写入冲突。
var ErrConcurrentUpdate = errors.New("conversation context was modified concurrently")

// UpdateFunc 在存储层持有会话的独占视图时修改上下文。
type UpdateFunc func(conv *model.ConversationContext) error

// ConversationRepository 定义了会话上下文的存取接口。
// Update 对同一会话的读-改-写是原子的。
type ConversationRepository interface {
	Get(ctx context.Context, sessionID string) (*model.ConversationContext, error)
	Update(ctx context.Context, sessionID string, fn UpdateFunc) (*model.ConversationContext, error)
	Delete(ctx context.Context, sessionID string) error
}

const (
	conversationKeyPrefix = "assistant:context:"
	maxUpdateAttempts     = 5
)

type redisConversationRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
	persistent  map[string]struct{}
}

// NewConversationRepository 创建一个基于 Redis 的 ConversationRepository。
// 每次写入都会刷新 ttl，persistent 中的会话写入时不设过期时间。
func NewConversationRepository(redisClient *redis.Client, ttl time.Duration, persistent ...string) ConversationRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisConversationRepository{redisClient: redisClient, ttl: ttl, persistent: sessionSet(persistent)}
}

func (r *redisConversationRepository) expiration(sessionID string) time.Duration {
	if _, ok := r.persistent[sessionID]; ok {
		return 0
	}
	return r.ttl
}

// storedContext 是写入 Redis 的记录，额外保存接口快照里不出现的 updated_at。
type storedContext struct {
	*model.ConversationContext
	UpdatedAt time.Time `json:"updated_at"`
}

func conversationKey(sessionID string) string {
	return conversationKeyPrefix + sessionID
}

// Get 从 Redis 获取会话上下文，不存在时返回空上下文。
func (r *redisConversationRepository) Get(ctx context.Context, sessionID string) (*model.ConversationContext, error) {
	return r.load(ctx, r.redisClient, sessionID)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *redisConversationRepository) load(ctx context.Context, getter stringGetter, sessionID string) (*model.ConversationContext, error) {
	jsonData, err := getter.Get(ctx, conversationKey(sessionID)).Result()
	if err == redis.Nil {
		return model.NewConversationContext(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation context: %w", err)
	}
	conv := model.NewConversationContext(sessionID)
	stored := storedContext{ConversationContext: conv}
	if err := json.Unmarshal([]byte(jsonData), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation context: %w", err)
	}
	conv.SessionID = sessionID
	conv.UpdatedAt = stored.UpdatedAt
	if conv.Pets == nil {
		conv.Pets = []json.RawMessage{}
	}
	if conv.ConversationHistory == nil {
		conv.ConversationHistory = []model.ChatMessage{}
	}
	return conv, nil
}

// Update 使用 WATCH/MULTI/EXEC 乐观锁更新会话，冲突时重试。
func (r *redisConversationRepository) Update(ctx context.Context, sessionID string, fn UpdateFunc) (*model.ConversationContext, error) {
	key := conversationKey(sessionID)
	var result *model.ConversationContext

	txf := func(tx *redis.Tx) error {
		conv, err := r.load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(conv); err != nil {
			return err
		}
		conv.UpdatedAt = time.Now()

		jsonData, err := json.Marshal(storedContext{ConversationContext: conv, UpdatedAt: conv.UpdatedAt})
		if err != nil {
			return fmt.Errorf("failed to marshal conversation context: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, jsonData, r.expiration(sessionID))
			return nil
		})
		if err != nil {
			return err
		}
		result = conv
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.redisClient.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConcurrentUpdate
}

// Delete 删除会话上下文。
func (r *redisConversationRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.redisClient.Del(ctx, conversationKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation context: %w", err)
	}
	return nil
}
