package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trivia-server/internal/domain"
)

const leaderboardKey = "trivia:leaderboard"

// ScoreStore keeps best scores in a single sorted set. ZADD GT gives the
// atomic write-only-if-higher semantics, so concurrent sessions for the
// same nickname cannot lose updates.
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

func (s *ScoreStore) GetBest(ctx context.Context, nickname string) (int, error) {
	score, err := s.client.ZScore(ctx, leaderboardKey, nickname).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrScoreNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get best score: %w", err)
	}
	return int(score), nil
}

func (s *ScoreStore) UpsertIfHigher(ctx context.Context, nickname string, score int) error {
	err := s.client.ZAddGT(ctx, leaderboardKey, redis.Z{
		Score:  float64(score),
		Member: nickname,
	}).Err()
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopN(ctx context.Context, n int) ([]domain.ScoreRecord, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	records := make([]domain.ScoreRecord, 0, len(entries))
	for _, entry := range entries {
		nickname, ok := entry.Member.(string)
		if !ok {
			continue
		}
		records = append(records, domain.ScoreRecord{Nickname: nickname, Score: int(entry.Score)})
	}
	return records, nil
}
