package service

import (
	"context"
	"errors"
	"fmt"
	"vetcard-ai/internal/model"
	"vetcard-ai/internal/repository"
)

// ErrArchiveDisabled 表示未配置 MySQL，归档不可用。
var ErrArchiveDisabled = errors.New("exchange archive is disabled")

const (
	defaultExchangeLimit = 20
	maxExchangeLimit     = 100
)

// ExchangeService 定义了问答归档的查询接口。
type ExchangeService interface {
	ListExchanges(ctx context.Context, sessionID string, limit int) ([]model.ExchangeDTO, error)
}

type exchangeService struct {
	repo repository.ExchangeRepository
}

// NewExchangeService 创建 ExchangeService，repo 为 nil 时所有查询返回 ErrArchiveDisabled。
func NewExchangeService(repo repository.ExchangeRepository) ExchangeService {
	return &exchangeService{repo: repo}
}

// ListExchanges 返回会话最近的归档问答，最新的在前。
func (s *exchangeService) ListExchanges(ctx context.Context, sessionID string, limit int) ([]model.ExchangeDTO, error) {
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 {
		limit = defaultExchangeLimit
	}
	if limit > maxExchangeLimit {
		limit = maxExchangeLimit
	}

	exchanges, err := s.repo.ListBySession(ctx, sessionOrDefault(sessionID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	out := make([]model.ExchangeDTO, 0, len(exchanges))
	for _, e := range exchanges {
		out = append(out, e.ToDTO())
	}
	return out, nil
}
