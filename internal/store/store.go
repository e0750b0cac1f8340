package store

import (
	"context"
	"errors"

	"github.com/xaenox/support-bot/internal/models"
)

// ErrAppealNotFound is returned when an appeal id matches no record.
var ErrAppealNotFound = errors.New("appeal not found")

// Store is the tabular store behind the bot. Appeal and Turn records
// share one table remotely; implementations discriminate the two shapes
// so callers only ever see typed records.
type Store interface {
	ListOpenAppeals(ctx context.Context, userID int64) ([]models.Appeal, error)
	CreateAppeal(ctx context.Context, appeal models.Appeal) error
	CloseAppeal(ctx context.Context, appealID string) error

	// ListTurns returns every turn of one appeal in ascending
	// timestamp order.
	ListTurns(ctx context.Context, userID int64, appealID string) ([]models.Turn, error)
	SaveTurn(ctx context.Context, turn models.Turn) error

	Close() error
}
