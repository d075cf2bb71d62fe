package service

import (
	"context"
	"testing"
	"time"
	"vetcard-ai/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExchangeRepo struct {
	gotSession string
	gotLimit   int
	rows       []model.Exchange
}

func (s *stubExchangeRepo) Create(context.Context, *model.Exchange) error { return nil }

func (s *stubExchangeRepo) ListBySession(_ context.Context, sessionID string, limit int) ([]model.Exchange, error) {
	s.gotSession = sessionID
	s.gotLimit = limit
	return s.rows, nil
}

func TestListExchanges_Disabled(t *testing.T) {
	_, err := NewExchangeService(nil).ListExchanges(context.Background(), "s", 5)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestListExchanges(t *testing.T) {
	repo := &stubExchangeRepo{rows: []model.Exchange{
		{ID: 2, Question: "корм", Category: "info", CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)},
	}}
	svc := NewExchangeService(repo)

	out, err := svc.ListExchanges(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionID, repo.gotSession)
	assert.Equal(t, defaultExchangeLimit, repo.gotLimit)
	require.Len(t, out, 1)
	assert.Equal(t, "2025-01-02 03:04:05", out[0].CreatedAt.String())

	_, err = svc.ListExchanges(context.Background(), "s", 1000)
	require.NoError(t, err)
	assert.Equal(t, maxExchangeLimit, repo.gotLimit)
}
