// Package history turns stored records into prompt context and writes
// new turns back. Store faults are logged and swallowed here: a broken
// store degrades the conversation, it must not end it.
package history

import (
	"context"
	"strings"

	"github.com/xaenox/support-bot/internal/models"
	"github.com/xaenox/support-bot/internal/store"
	"go.uber.org/zap"
)

type History struct {
	store  store.Store
	logger *zap.Logger
}

func New(store store.Store, logger *zap.Logger) *History {
	return &History{
		store:  store,
		logger: logger,
	}
}

// Transcript renders the appeal's prior turns as "<Role>: <content>"
// lines in the order they occurred. On any store fault it returns an
// empty transcript.
func (h *History) Transcript(ctx context.Context, userID int64, appealID string) string {
	turns, err := h.store.ListTurns(ctx, userID, appealID)
	if err != nil {
		h.logger.Error("Failed to load conversation history",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("appeal_id", appealID))
		return ""
	}

	var b strings.Builder
	for _, turn := range turns {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Append persists one turn. Failures are logged and swallowed so the
// user-visible reply is delivered even when the store loses the record.
func (h *History) Append(ctx context.Context, turn models.Turn) {
	if err := h.store.SaveTurn(ctx, turn); err != nil {
		h.logger.Error("Failed to save turn",
			zap.Error(err),
			zap.Int64("user_id", turn.UserID),
			zap.String("appeal_id", turn.AppealID),
			zap.String("role", string(turn.Role)))
	}
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "User"
	case models.RoleBot:
		return "Bot"
	}
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(role[0])) + string(role[1:])
}
