package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation turns in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			id TEXT PRIMARY KEY,
			counterpart TEXT NOT NULL,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			ts_millis BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turns_counterpart_ts
			ON conversation_turns (counterpart, ts_millis);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, counterpart string, turn Turn) (Turn, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp == 0 {
		turn.Timestamp = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_turns (id, counterpart, sender, recipient, body, ts_millis)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID,
		counterpart,
		turn.Sender,
		turn.Recipient,
		turn.Text,
		turn.Timestamp,
	)
	if err != nil {
		return Turn{}, fmt.Errorf("append turn: %w", err)
	}
	return turn, nil
}

func (s *PostgresStore) List(ctx context.Context, counterpart string) ([]Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender, recipient, body, ts_millis
		 FROM conversation_turns WHERE counterpart=$1 ORDER BY ts_millis ASC`,
		counterpart,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := make([]Turn, 0, 16)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.Sender, &t.Recipient, &t.Text, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", err)
	}

	return turns, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
