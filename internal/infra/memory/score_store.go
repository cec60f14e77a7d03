package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-server/internal/domain"
)

// ScoreStore is an in-memory app.ScoreStore, used by tests and by
// store-less runs. Scores do not survive a process restart.
type ScoreStore struct {
	mu     sync.RWMutex
	scores map[string]int
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{scores: make(map[string]int)}
}

func (s *ScoreStore) GetBest(_ context.Context, nickname string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[nickname]
	if !ok {
		return 0, domain.ErrScoreNotFound
	}
	return score, nil
}

func (s *ScoreStore) UpsertIfHigher(_ context.Context, nickname string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.scores[nickname]; ok && current >= score {
		return nil
	}
	s.scores[nickname] = score
	return nil
}

func (s *ScoreStore) TopN(_ context.Context, n int) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.ScoreRecord, 0, len(s.scores))
	for nickname, score := range s.scores {
		records = append(records, domain.ScoreRecord{Nickname: nickname, Score: score})
	}
	// Ties break by nickname so repeated queries return the same order.
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Nickname < records[j].Nickname
	})
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}
