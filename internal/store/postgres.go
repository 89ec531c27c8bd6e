package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"colorx/internal/portfolio"
)

// PostgresStore backs both store contracts with Postgres for multi-user
// deployments where shared flat files are not an option. Selected by
// setting DATABASE_URL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &PostgresStore{db: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS colorx_users (
			username text PRIMARY KEY,
			password text NOT NULL,
			portfolio jsonb,
			trade_history jsonb NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS colorx_leaderboard (
			id bigserial PRIMARY KEY,
			username text NOT NULL,
			score bigint NOT NULL,
			recorded_at timestamptz NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]UserRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT username, password, portfolio, trade_history
		FROM colorx_users
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := map[string]UserRecord{}
	for rows.Next() {
		var (
			username   string
			rec        UserRecord
			pfRaw      []byte
			historyRaw []byte
		)
		if err := rows.Scan(&username, &rec.Password, &pfRaw, &historyRaw); err != nil {
			return nil, err
		}
		if len(pfRaw) > 0 {
			var pf portfolio.Portfolio
			if err := json.Unmarshal(pfRaw, &pf); err == nil {
				rec.Portfolio = &pf
			}
		}
		if len(historyRaw) > 0 {
			_ = json.Unmarshal(historyRaw, &rec.TradeHistory)
		}
		users[username] = rec
	}
	return users, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, users map[string]UserRecord) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM colorx_users`); err != nil {
		return err
	}
	for username, rec := range users {
		var pfRaw []byte
		if rec.Portfolio != nil {
			pfRaw, err = json.Marshal(rec.Portfolio)
			if err != nil {
				return err
			}
		}
		historyRaw, err := json.Marshal(rec.TradeHistory)
		if err != nil {
			return err
		}
		if rec.TradeHistory == nil {
			historyRaw = []byte(`[]`)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO colorx_users (username, password, portfolio, trade_history)
			VALUES ($1, $2, $3, $4)
		`, username, rec.Password, pfRaw, historyRaw); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// PostgresLeaderboard implements LeaderboardStore against the same pool.
type PostgresLeaderboard struct {
	db *pgxpool.Pool
}

func (s *PostgresStore) Leaderboard() *PostgresLeaderboard {
	return &PostgresLeaderboard{db: s.db}
}

func (s *PostgresLeaderboard) Load(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT username, score, recorded_at
		FROM colorx_leaderboard
		ORDER BY score DESC, id
		LIMIT $1
	`, MaxLeaderboardEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresLeaderboard) Save(ctx context.Context, entries []LeaderboardEntry) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM colorx_leaderboard`); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO colorx_leaderboard (username, score, recorded_at)
			VALUES ($1, $2, $3)
		`, e.Username, e.Score, e.Date); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
