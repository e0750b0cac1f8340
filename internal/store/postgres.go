package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/xaenox/support-bot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore is a self-hosted alternative to the Airtable backend.
// It keeps the remote store's single-table shape.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	store := &PostgresStore{db: db}

	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStore) ListOpenAppeals(ctx context.Context, userID int64) ([]models.Appeal, error) {
	query := `
		SELECT appeal_id, user_id, appeal_title, appeal_status, timestamp
		FROM dialogues
		WHERE user_id = $1 AND appeal_status = $2
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, models.AppealOpen)
	if err != nil {
		return nil, fmt.Errorf("error querying open appeals: %v", err)
	}
	defer rows.Close()

	var appeals []models.Appeal
	for rows.Next() {
		var appeal models.Appeal
		err := rows.Scan(
			&appeal.ID,
			&appeal.UserID,
			&appeal.Title,
			&appeal.Status,
			&appeal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning appeal: %v", err)
		}
		appeals = append(appeals, appeal)
	}

	return appeals, rows.Err()
}

func (s *PostgresStore) CreateAppeal(ctx context.Context, appeal models.Appeal) error {
	query := `
		INSERT INTO dialogues (user_id, appeal_id, appeal_title, appeal_status, timestamp)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		appeal.UserID,
		appeal.ID,
		appeal.Title,
		appeal.Status,
		appeal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error creating appeal: %v", err)
	}

	return nil
}

func (s *PostgresStore) CloseAppeal(ctx context.Context, appealID string) error {
	query := `
		UPDATE dialogues
		SET appeal_status = $1
		WHERE appeal_id = $2 AND appeal_status IS NOT NULL`

	result, err := s.db.ExecContext(ctx, query, models.AppealClosed, appealID)
	if err != nil {
		return fmt.Errorf("error closing appeal: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %v", err)
	}

	if rowsAffected == 0 {
		return ErrAppealNotFound
	}

	return nil
}

func (s *PostgresStore) ListTurns(ctx context.Context, userID int64, appealID string) ([]models.Turn, error) {
	query := `
		SELECT message_id, user_id, appeal_id, role, content, tokens, timestamp
		FROM dialogues
		WHERE user_id = $1 AND appeal_id = $2 AND role IS NOT NULL
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, appealID)
	if err != nil {
		return nil, fmt.Errorf("error querying turns: %v", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var turn models.Turn
		var tokens sql.NullInt32
		err := rows.Scan(
			&turn.MessageID,
			&turn.UserID,
			&turn.AppealID,
			&turn.Role,
			&turn.Content,
			&tokens,
			&turn.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning turn: %v", err)
		}
		if tokens.Valid {
			t := int(tokens.Int32)
			turn.Tokens = &t
		}
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

func (s *PostgresStore) SaveTurn(ctx context.Context, turn models.Turn) error {
	query := `
		INSERT INTO dialogues (message_id, user_id, appeal_id, role, content, tokens, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var tokens sql.NullInt32
	if turn.Tokens != nil {
		tokens = sql.NullInt32{Int32: int32(*turn.Tokens), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		turn.MessageID,
		turn.UserID,
		turn.AppealID,
		turn.Role,
		turn.Content,
		tokens,
		turn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("error saving turn: %v", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
