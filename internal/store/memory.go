package store

import (
	"context"
	"sort"
	"sync"

	"github.com/xaenox/support-bot/internal/models"
)

// MemoryStore keeps appeals and turns in process memory. Used for local
// runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	appeals map[string]models.Appeal
	turns   []models.Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appeals: make(map[string]models.Appeal),
	}
}

func (s *MemoryStore) ListOpenAppeals(ctx context.Context, userID int64) ([]models.Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var appeals []models.Appeal
	for _, appeal := range s.appeals {
		if appeal.UserID == userID && appeal.Status == models.AppealOpen {
			appeals = append(appeals, appeal)
		}
	}
	sort.Slice(appeals, func(i, j int) bool {
		return appeals[i].CreatedAt.Before(appeals[j].CreatedAt)
	})
	return appeals, nil
}

func (s *MemoryStore) CreateAppeal(ctx context.Context, appeal models.Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appeals[appeal.ID] = appeal
	return nil
}

func (s *MemoryStore) CloseAppeal(ctx context.Context, appealID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appeal, exists := s.appeals[appealID]
	if !exists {
		return ErrAppealNotFound
	}
	appeal.Status = models.AppealClosed
	s.appeals[appealID] = appeal
	return nil
}

func (s *MemoryStore) ListTurns(ctx context.Context, userID int64, appealID string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var turns []models.Turn
	for _, turn := range s.turns {
		if turn.UserID == userID && turn.AppealID == appealID {
			turns = append(turns, turn)
		}
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].Timestamp.Before(turns[j].Timestamp)
	})
	return turns, nil
}

func (s *MemoryStore) SaveTurn(ctx context.Context, turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
	return nil
}

func (s *MemoryStore) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
