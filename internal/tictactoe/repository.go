package tictactoe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const createResultsTable = `CREATE TABLE IF NOT EXISTS ttt_games (
    game_id     TEXT PRIMARY KEY,
    session_key TEXT NOT NULL,
    player1     TEXT NOT NULL,
    player2     TEXT NOT NULL,
    result      TEXT NOT NULL,
    winner      TEXT NOT NULL DEFAULT '',
    moves       JSONB NOT NULL,
    transcript  TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL DEFAULT 0
)`

const upsertResult = `INSERT INTO ttt_games (
    game_id, session_key, player1, player2, result, winner,
    moves, transcript, started_at, ended_at, duration_ms
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  ON CONFLICT (game_id) DO UPDATE SET
    result=EXCLUDED.result,
    winner=EXCLUDED.winner,
    moves=EXCLUDED.moves,
    transcript=EXCLUDED.transcript,
    ended_at=EXCLUDED.ended_at,
    duration_ms=EXCLUDED.duration_ms`

// Repository archives finished games in Postgres. It only ever sees results, never live sessions.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createResultsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate ttt_games: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Record implements ResultRecorder.
func (r *Repository) Record(ctx context.Context, res *Result) error {
	if r == nil || r.db == nil || res == nil {
		return nil
	}
	args, err := resultArgs(res)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertResult, args...); err != nil {
		return fmt.Errorf("save ttt result %s: %w", res.GameID, err)
	}
	return nil
}

func resultArgs(res *Result) ([]any, error) {
	moves := res.Moves
	if moves == nil {
		moves = []int{}
	}
	raw, err := json.Marshal(moves)
	if err != nil {
		return nil, fmt.Errorf("encode moves: %w", err)
	}
	return []any{
		res.GameID,
		res.Key,
		string(res.Players[0]), string(res.Players[1]),
		string(res.Kind),
		string(res.WinnerID()),
		string(raw),
		res.Transcript(),
		res.StartedAt, res.EndedAt,
		res.Duration().Milliseconds(),
	}, nil
}
