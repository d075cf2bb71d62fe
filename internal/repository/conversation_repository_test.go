package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
	"vetcard-ai/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration, persistent ...string) (ConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewConversationRepository(client, ttl, persistent...), mr
}

func appendTurn(content string) UpdateFunc {
	return func(conv *model.ConversationContext) error {
		conv.Append(model.ChatMessage{Role: model.RoleUser, Content: content, Timestamp: time.Now()}, 10)
		return nil
	}
}

// 两种实现共享的行为测试
func exerciseRepository(t *testing.T, repo ConversationRepository) {
	ctx := context.Background()

	t.Run("missing session is empty", func(t *testing.T) {
		conv, err := repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, "nobody", conv.SessionID)
		assert.Nil(t, conv.User)
		assert.Empty(t, conv.Pets)
		assert.Empty(t, conv.ConversationHistory)
	})

	t.Run("update persists", func(t *testing.T) {
		user := "anna"
		conv, err := repo.Update(ctx, "s1", func(conv *model.ConversationContext) error {
			conv.Merge(&model.UserContext{User: &user, Pets: []json.RawMessage{json.RawMessage(`{"id":1}`)}})
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, conv.Pets, 1)

		got, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, got.User)
		assert.Equal(t, "anna", *got.User)
		assert.JSONEq(t, `{"id":1}`, string(got.Pets[0]))
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("update error leaves state untouched", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.Update(ctx, "s2", func(conv *model.ConversationContext) error {
			conv.Append(model.ChatMessage{Role: model.RoleUser, Content: "lost"}, 10)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.Get(ctx, "s2")
		require.NoError(t, err)
		assert.Empty(t, got.ConversationHistory)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		_, err := repo.Update(ctx, "a", appendTurn("for a"))
		require.NoError(t, err)

		got, err := repo.Get(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, got.ConversationHistory)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = repo.Update(ctx, "busy", appendTurn("x"))
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, "busy")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got.ConversationHistory), 10)
		assert.NotEmpty(t, got.ConversationHistory)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := repo.Update(ctx, "gone", appendTurn("bye"))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, "gone"))

		got, err := repo.Get(ctx, "gone")
		require.NoError(t, err)
		assert.Empty(t, got.ConversationHistory)
	})
}

func TestMemoryConversationRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryConversationRepository(time.Hour))
}

func TestRedisConversationRepository(t *testing.T) {
	repo, _ := newRedisRepo(t, time.Hour)
	exerciseRepository(t, repo)
}

func TestMemoryConversationRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryConversationRepository(0)
	ctx := context.Background()

	conv, err := repo.Update(ctx, "s", appendTurn("hello"))
	require.NoError(t, err)
	conv.ConversationHistory[0].Content = "mutated"

	got, err := repo.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.ConversationHistory[0].Content)
}

func TestMemoryConversationRepository_Expiry(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Minute).(*memoryConversationRepository)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := repo.Update(ctx, "old", appendTurn("hi"))
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = repo.Update(ctx, "fresh", appendTurn("hi"))
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, repo.Sweep())
	assert.Equal(t, 1, repo.Len())

	now = now.Add(time.Hour)
	got, err := repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, got.ConversationHistory)
	assert.Equal(t, 0, repo.Len())
}

func TestMemoryConversationRepository_PersistentSessionNeverExpires(t *testing.T) {
	repo := NewMemoryConversationRepository(time.Minute, "default").(*memoryConversationRepository)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := repo.Update(ctx, "default", appendTurn("hi"))
	require.NoError(t, err)
	_, err = repo.Update(ctx, "scoped", appendTurn("hi"))
	require.NoError(t, err)

	now = now.Add(48 * time.Hour)
	assert.Equal(t, 1, repo.Sweep())

	got, err := repo.Get(ctx, "default")
	require.NoError(t, err)
	assert.Len(t, got.ConversationHistory, 1)
	got, err = repo.Get(ctx, "scoped")
	require.NoError(t, err)
	assert.Empty(t, got.ConversationHistory)
}

func TestRedisConversationRepository_PersistentSessionHasNoTTL(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Minute, "default")
	ctx := context.Background()

	_, err := repo.Update(ctx, "default", appendTurn("hi"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), mr.TTL(conversationKey("default")))

	mr.FastForward(48 * time.Hour)
	got, err := repo.Get(ctx, "default")
	require.NoError(t, err)
	assert.Len(t, got.ConversationHistory, 1)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestRedisConversationRepository_TTL(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Minute)
	ctx := context.Background()

	_, err := repo.Update(ctx, "ttl", appendTurn("hi"))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(conversationKey("ttl")))

	mr.FastForward(2 * time.Minute)
	got, err := repo.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.Empty(t, got.ConversationHistory)
}

func TestRedisConversationRepository_CorruptValue(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Minute)
	require.NoError(t, mr.Set(conversationKey("bad"), "{not json"))

	_, err := repo.Get(context.Background(), "bad")
	assert.Error(t, err)
}
