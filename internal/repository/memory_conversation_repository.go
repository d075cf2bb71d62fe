package repository

import (
	"context"
	"sync"
	"time"
	"vetcard-ai/internal/model"
)

type memoryConversationRepository struct {
	mu         sync.Mutex
	sessions   map[string]*model.ConversationContext
	persistent map[string]struct{}
	ttl        time.Duration
	now        func() time.Time
}

// MemoryConversationRepository 是进程内的会话存储，进程重启即清空。
type MemoryConversationRepository interface {
	ConversationRepository
	// Sweep 删除闲置超过 ttl 的会话，返回删除数量。
	Sweep() int
	Len() int
}

// NewMemoryConversationRepository 创建内存会话存储。ttl <= 0 表示永不过期；
// persistent 中的会话不受 ttl 影响，只随进程重启清空。
func NewMemoryConversationRepository(ttl time.Duration, persistent ...string) MemoryConversationRepository {
	return &memoryConversationRepository{
		sessions:   make(map[string]*model.ConversationContext),
		persistent: sessionSet(persistent),
		ttl:        ttl,
		now:        time.Now,
	}
}

func sessionSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (r *memoryConversationRepository) expired(sessionID string, conv *model.ConversationContext, now time.Time) bool {
	if _, ok := r.persistent[sessionID]; ok {
		return false
	}
	return r.ttl > 0 && now.Sub(conv.UpdatedAt) > r.ttl
}

// lookup 必须在持有锁时调用。
func (r *memoryConversationRepository) lookup(sessionID string) (*model.ConversationContext, bool) {
	conv, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if r.expired(sessionID, conv, r.now()) {
		delete(r.sessions, sessionID)
		return nil, false
	}
	return conv, true
}

func (r *memoryConversationRepository) Get(_ context.Context, sessionID string) (*model.ConversationContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.lookup(sessionID)
	if !ok {
		return model.NewConversationContext(sessionID), nil
	}
	return conv.Clone(), nil
}

func (r *memoryConversationRepository) Update(_ context.Context, sessionID string, fn UpdateFunc) (*model.ConversationContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.lookup(sessionID)
	if ok {
		conv = conv.Clone()
	} else {
		conv = model.NewConversationContext(sessionID)
	}
	if err := fn(conv); err != nil {
		return nil, err
	}
	conv.UpdatedAt = r.now()
	r.sessions[sessionID] = conv
	return conv.Clone(), nil
}

func (r *memoryConversationRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

func (r *memoryConversationRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, conv := range r.sessions {
		if r.expired(id, conv, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *memoryConversationRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartJanitor 周期性清理过期会话，ctx 取消后退出。
func StartJanitor(ctx context.Context, repo MemoryConversationRepository, every time.Duration, onSweep func(removed int)) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := repo.Sweep(); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
