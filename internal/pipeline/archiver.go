// Package pipeline 定义了对话事件的归档流程。
package pipeline

import (
	"context"
	"fmt"
	"vetcard-ai/internal/model"
	"vetcard-ai/internal/repository"
	"vetcard-ai/pkg/events"
	"vetcard-ai/pkg/log"
)

// Archiver 把对话事件写入归档表。既可作为 Kafka 消费者的处理器，
// 也可在未配置 Kafka 时直接作为事件记录器使用。
type Archiver struct {
	exchangeRepo repository.ExchangeRepository
}

// NewArchiver 创建一个新的 Archiver 实例。
func NewArchiver(exchangeRepo repository.ExchangeRepository) *Archiver {
	return &Archiver{exchangeRepo: exchangeRepo}
}

// Process 将一个事件转换为归档记录并保存。
func (a *Archiver) Process(ctx context.Context, event events.ExchangeEvent) error {
	exchange := &model.Exchange{
		SessionID: event.SessionID,
		User:      event.User,
		Question:  event.Question,
		Answer:    event.Answer,
		Category:  event.Category,
		Rule:      event.Rule,
		PetsCount: event.PetsCount,
		CreatedAt: event.OccurredAt,
	}
	if err := a.exchangeRepo.Create(ctx, exchange); err != nil {
		return fmt.Errorf("failed to archive exchange: %w", err)
	}
	log.Debugw("[Archiver] 对话已归档", "session", event.SessionID, "rule", event.Rule, "id", exchange.ID)
	return nil
}

// Record 与 Process 相同，满足 service.ExchangeRecorder 接口。
func (a *Archiver) Record(ctx context.Context, event events.ExchangeEvent) error {
	return a.Process(ctx, event)
}
