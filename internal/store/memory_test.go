package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/support-bot/internal/models"
)

func TestMemoryStoreListOpenAppeals(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateAppeal(ctx, models.Appeal{ID: "a1", UserID: 1, Title: "first", Status: models.AppealOpen, CreatedAt: time.Now()}))
	require.NoError(t, s.CreateAppeal(ctx, models.Appeal{ID: "a2", UserID: 1, Title: "second", Status: models.AppealClosed, CreatedAt: time.Now()}))
	require.NoError(t, s.CreateAppeal(ctx, models.Appeal{ID: "a3", UserID: 2, Title: "other user", Status: models.AppealOpen, CreatedAt: time.Now()}))

	appeals, err := s.ListOpenAppeals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, appeals, 1)
	assert.Equal(t, "a1", appeals[0].ID)
}

func TestMemoryStoreCloseAppeal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateAppeal(ctx, models.Appeal{ID: "a1", UserID: 1, Status: models.AppealOpen}))
	require.NoError(t, s.CloseAppeal(ctx, "a1"))

	appeals, err := s.ListOpenAppeals(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, appeals)
}

func TestMemoryStoreCloseMissingAppeal(t *testing.T) {
	s := NewMemoryStore()
	err := s.CloseAppeal(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrAppealNotFound)
}

func TestMemoryStoreListTurnsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Interleave two appeals and insert out of order.
	require.NoError(t, s.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a1", Role: models.RoleBot, Content: "second", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, s.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a1", Role: models.RoleUser, Content: "first", Timestamp: base}))
	require.NoError(t, s.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a2", Role: models.RoleUser, Content: "elsewhere", Timestamp: base}))

	turns, err := s.ListTurns(ctx, 1, "a1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
}

func TestMemoryStoreListTurnsEmpty(t *testing.T) {
	turns, err := NewMemoryStore().ListTurns(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
