package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-server/internal/domain"
)

// ScoreStore persists best scores in the players table. The nickname is
// the primary key, so upsert-if-higher is a single conditional statement
// and concurrent sessions cannot lose updates.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) GetBest(ctx context.Context, nickname string) (int, error) {
	var score int
	err := s.pool.QueryRow(ctx, `SELECT score FROM players WHERE nickname=$1`, nickname).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrScoreNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get best score: %w", err)
	}
	return score, nil
}

func (s *ScoreStore) UpsertIfHigher(ctx context.Context, nickname string, score int) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO players (nickname, score) VALUES ($1, $2)
ON CONFLICT (nickname) DO UPDATE SET score = EXCLUDED.score
WHERE players.score < EXCLUDED.score`, nickname, score)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopN(ctx context.Context, n int) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT nickname, score FROM players ORDER BY score DESC, nickname LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var rec domain.ScoreRecord
		if err := rows.Scan(&rec.Nickname, &rec.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return records, nil
}
