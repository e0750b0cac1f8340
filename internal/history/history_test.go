package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/support-bot/internal/models"
	"github.com/xaenox/support-bot/internal/store"
	"go.uber.org/zap"
)

// brokenStore fails every operation, standing in for a store outage.
type brokenStore struct{}

func (brokenStore) ListOpenAppeals(ctx context.Context, userID int64) ([]models.Appeal, error) {
	return nil, errors.New("store down")
}
func (brokenStore) CreateAppeal(ctx context.Context, appeal models.Appeal) error {
	return errors.New("store down")
}
func (brokenStore) CloseAppeal(ctx context.Context, appealID string) error {
	return errors.New("store down")
}
func (brokenStore) ListTurns(ctx context.Context, userID int64, appealID string) ([]models.Turn, error) {
	return nil, errors.New("store down")
}
func (brokenStore) SaveTurn(ctx context.Context, turn models.Turn) error {
	return errors.New("store down")
}
func (brokenStore) Close() error { return nil }

func TestTranscriptRendersOrderedTurns(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := New(st, zap.NewNop())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a1", Role: models.RoleUser, Content: "my printer won't turn on", Timestamp: base}))
	require.NoError(t, st.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a1", Role: models.RoleBot, Content: "check the cable", Timestamp: base.Add(time.Second)}))

	got := h.Transcript(ctx, 1, "a1")
	assert.Equal(t, "User: my printer won't turn on\nBot: check the cable\n", got)
}

func TestTranscriptScopedToAppeal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	h := New(st, zap.NewNop())

	require.NoError(t, st.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a1", Role: models.RoleUser, Content: "one", Timestamp: time.Now()}))
	require.NoError(t, st.SaveTurn(ctx, models.Turn{UserID: 1, AppealID: "a2", Role: models.RoleUser, Content: "two", Timestamp: time.Now()}))

	assert.Equal(t, "User: one\n", h.Transcript(ctx, 1, "a1"))
}

func TestTranscriptEmptyWhenNoTurns(t *testing.T) {
	h := New(store.NewMemoryStore(), zap.NewNop())
	assert.Equal(t, "", h.Transcript(context.Background(), 1, "a1"))
}

func TestTranscriptEmptyOnStoreFault(t *testing.T) {
	h := New(brokenStore{}, zap.NewNop())
	assert.Equal(t, "", h.Transcript(context.Background(), 1, "a1"))
}

func TestAppendSwallowsStoreFault(t *testing.T) {
	h := New(brokenStore{}, zap.NewNop())
	assert.NotPanics(t, func() {
		h.Append(context.Background(), models.Turn{UserID: 1, AppealID: "a1", Role: models.RoleUser, Content: "hi"})
	})
}
