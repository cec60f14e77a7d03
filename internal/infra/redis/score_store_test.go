package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-server/internal/domain"
)

func newTestStore(t *testing.T) *ScoreStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewScoreStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestUpsertIfHigherIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.GetBest(ctx, "alice"); !errors.Is(err, domain.ErrScoreNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	if err := store.UpsertIfHigher(ctx, "alice", 4); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertIfHigher(ctx, "alice", 2); err != nil {
		t.Fatalf("upsert lower: %v", err)
	}
	best, err := store.GetBest(ctx, "alice")
	if err != nil {
		t.Fatalf("get best: %v", err)
	}
	if best != 4 {
		t.Fatalf("lower score must not overwrite, got %d", best)
	}
}

func TestTopNDescending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for nickname, score := range map[string]int{"alice": 3, "bob": 7, "carol": 5} {
		if err := store.UpsertIfHigher(ctx, nickname, score); err != nil {
			t.Fatalf("upsert %s: %v", nickname, err)
		}
	}

	records, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Nickname != "bob" || records[0].Score != 7 {
		t.Fatalf("expected bob leading, got %+v", records[0])
	}
	if records[2].Nickname != "alice" {
		t.Fatalf("expected alice last, got %+v", records[2])
	}
}
