package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists game sessions in PostgreSQL.
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
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id TEXT PRIMARY KEY,
			white JSONB NOT NULL,
			black JSONB NOT NULL,
			status TEXT NOT NULL,
			result TEXT NOT NULL DEFAULT '',
			moves JSONB NOT NULL,
			positions JSONB NOT NULL,
			analyses JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_game_sessions_white_user ON game_sessions ((white->>'user_id'));`,
		`CREATE INDEX IF NOT EXISTS idx_game_sessions_black_user ON game_sessions ((black->>'user_id'));`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Persist(ctx context.Context, session *Session) error {
	white, err := json.Marshal(session.White)
	if err != nil {
		return fmt.Errorf("encode white participant: %w", err)
	}
	black, err := json.Marshal(session.Black)
	if err != nil {
		return fmt.Errorf("encode black participant: %w", err)
	}
	moves, err := json.Marshal(session.Moves)
	if err != nil {
		return fmt.Errorf("encode moves: %w", err)
	}
	positions, err := json.Marshal(session.Positions)
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	analyses, err := json.Marshal(session.Analyses)
	if err != nil {
		return fmt.Errorf("encode analyses: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_sessions (id, white, black, status, result, moves, positions, analyses, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			result = EXCLUDED.result,
			moves = EXCLUDED.moves,
			positions = EXCLUDED.positions,
			analyses = EXCLUDED.analyses,
			updated_at = EXCLUDED.updated_at`,
		session.ID,
		white,
		black,
		string(session.Status),
		session.Result,
		moves,
		positions,
		analyses,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("persist game: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, gameID string) (*Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, white, black, status, result, moves, positions, analyses, created_at, updated_at
		 FROM game_sessions WHERE id=$1`,
		gameID,
	)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load game: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]*Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, white, black, status, result, moves, positions, analyses, created_at, updated_at
		 FROM game_sessions
		 WHERE white->>'user_id' = $1 OR black->>'user_id' = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		sess      Session
		status    string
		white     []byte
		black     []byte
		moves     []byte
		positions []byte
		analyses  []byte
	)
	if err := row.Scan(&sess.ID, &white, &black, &status, &sess.Result, &moves, &positions, &analyses, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}
	sess.Status = Status(status)
	if err := json.Unmarshal(white, &sess.White); err != nil {
		return nil, fmt.Errorf("decode white participant: %w", err)
	}
	if err := json.Unmarshal(black, &sess.Black); err != nil {
		return nil, fmt.Errorf("decode black participant: %w", err)
	}
	if err := json.Unmarshal(moves, &sess.Moves); err != nil {
		return nil, fmt.Errorf("decode moves: %w", err)
	}
	if err := json.Unmarshal(positions, &sess.Positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	if err := json.Unmarshal(analyses, &sess.Analyses); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}
	return &sess, nil
}
