// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"vetcard-ai/internal/assistant"
	"vetcard-ai/internal/model"
	"vetcard-ai/internal/repository"
	"vetcard-ai/pkg/events"
	"vetcard-ai/pkg/log"
)

// DefaultSessionID 是未携带会话令牌的调用方共享的会话。
const DefaultSessionID = "default"

// DefaultHistoryLimit 是每个会话保留的历史消息条数。
const DefaultHistoryLimit = 10

// ErrEmptyMessage 表示消息为空或只包含空白字符。
var ErrEmptyMessage = errors.New("message is required")

// ExchangeRecorder 接收每次问答产生的事件（Kafka 生产者或直接归档）。
type ExchangeRecorder interface {
	Record(ctx context.Context, event events.ExchangeEvent) error
}

// AssistantService 定义了对话助手的业务接口。
type AssistantService interface {
	ProcessMessage(ctx context.Context, sessionID, message string, partial *model.UserContext) (*model.Reply, error)
	MergeContext(ctx context.Context, sessionID string, partial model.UserContext) error
	GetContext(ctx context.Context, sessionID string) (*model.ConversationContext, error)
	ResetContext(ctx context.Context, sessionID string) error
}

type assistantService struct {
	classifier   *assistant.Classifier
	repo         repository.ConversationRepository
	recorder     ExchangeRecorder
	historyLimit int
	now          func() time.Time
}

// AssistantOption 配置 AssistantService。
type AssistantOption func(*assistantService)

// WithRecorder 设置问答事件记录器。
func WithRecorder(recorder ExchangeRecorder) AssistantOption {
	return func(s *assistantService) {
		s.recorder = recorder
	}
}

// WithHistoryLimit 设置每个会话保留的历史条数。
func WithHistoryLimit(limit int) AssistantOption {
	return func(s *assistantService) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// NewAssistantService 创建一个新的 AssistantService 实例。
func NewAssistantService(classifier *assistant.Classifier, repo repository.ConversationRepository, opts ...AssistantOption) AssistantService {
	s := &assistantService{
		classifier:   classifier,
		repo:         repo,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionOrDefault(sessionID string) string {
	if sessionID == "" {
		return DefaultSessionID
	}
	return sessionID
}

// ProcessMessage 合并上下文、分类消息，并把本轮问答追加到会话历史。
func (s *assistantService) ProcessMessage(ctx context.Context, sessionID, message string, partial *model.UserContext) (*model.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	sessionID = sessionOrDefault(sessionID)
	result := s.classifier.Classify(message)

	conv, err := s.repo.Update(ctx, sessionID, func(conv *model.ConversationContext) error {
		conv.Merge(partial)
		conv.Append(model.ChatMessage{Role: model.RoleUser, Content: message, Timestamp: s.now()}, s.historyLimit)
		conv.Append(model.ChatMessage{Role: model.RoleAssistant, Content: result.Message, Timestamp: s.now()}, s.historyLimit)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation context: %w", err)
	}

	log.Infow("[AssistantService] 消息已分类",
		"session", sessionID,
		"rule", result.Rule,
		"category", result.Category,
		"historyLength", len(conv.ConversationHistory),
	)
	s.record(ctx, conv, message, result)

	return &model.Reply{
		Type:        string(result.Category),
		Message:     result.Message,
		Suggestions: result.Suggestions,
		Context: model.ContextMeta{
			PetsCount:          len(conv.Pets),
			ConversationLength: len(conv.ConversationHistory),
		},
	}, nil
}

// record 失败只记录日志，不影响本次回复。
func (s *assistantService) record(ctx context.Context, conv *model.ConversationContext, question string, result assistant.Classification) {
	if s.recorder == nil {
		return
	}
	event := events.ExchangeEvent{
		SessionID:  conv.SessionID,
		Question:   question,
		Answer:     result.Message,
		Category:   string(result.Category),
		Rule:       result.Rule,
		PetsCount:  len(conv.Pets),
		OccurredAt: s.now(),
	}
	if conv.User != nil {
		event.User = *conv.User
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.recorder.Record(recordCtx, event); err != nil {
		log.Errorf("[AssistantService] 记录问答事件失败: session=%s, err=%v", conv.SessionID, err)
	}
}

// MergeContext 浅合并调用方提供的 user/pets 字段。
func (s *assistantService) MergeContext(ctx context.Context, sessionID string, partial model.UserContext) error {
	_, err := s.repo.Update(ctx, sessionOrDefault(sessionID), func(conv *model.ConversationContext) error {
		conv.Merge(&partial)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to merge conversation context: %w", err)
	}
	return nil
}

// GetContext 返回会话上下文快照。
func (s *assistantService) GetContext(ctx context.Context, sessionID string) (*model.ConversationContext, error) {
	conv, err := s.repo.Get(ctx, sessionOrDefault(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation context: %w", err)
	}
	return conv, nil
}

// ResetContext 清空会话上下文。
func (s *assistantService) ResetContext(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionOrDefault(sessionID)); err != nil {
		return fmt.Errorf("failed to reset conversation context: %w", err)
	}
	return nil
}
