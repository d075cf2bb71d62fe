package repository

import (
	"context"
	"vetcard-ai/internal/model"

	"gorm.io/gorm"
)

// ExchangeRepository 定义了问答归档的持久化操作。
type ExchangeRepository interface {
	Create(ctx context.Context, exchange *model.Exchange) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.Exchange, error)
}

// exchangeRepository 是 ExchangeRepository 接口的 GORM 实现。
type exchangeRepository struct {
	db *gorm.DB
}

// NewExchangeRepository 创建一个新的 ExchangeRepository 实例。
func NewExchangeRepository(db *gorm.DB) ExchangeRepository {
	return &exchangeRepository{db: db}
}

// Create 写入一条归档记录。
func (r *exchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	return r.db.WithContext(ctx).Create(exchange).Error
}

// ListBySession 按时间倒序返回某个会话最近的归档记录。
func (r *exchangeRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.Exchange, error) {
	var exchanges []model.Exchange
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id desc").
		Limit(limit).
		Find(&exchanges).Error
	return exchanges, err
}
