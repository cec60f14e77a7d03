package memory

import (
	"context"
	"errors"
	"testing"

	"trivia-server/internal/domain"
)

func TestUpsertKeepsHighestScore(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()

	if _, err := store.GetBest(ctx, "alice"); !errors.Is(err, domain.ErrScoreNotFound) {
		t.Fatalf("expected not-found for unknown nickname, got %v", err)
	}

	if err := store.UpsertIfHigher(ctx, "alice", 5); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertIfHigher(ctx, "alice", 3); err != nil {
		t.Fatalf("upsert lower: %v", err)
	}
	best, err := store.GetBest(ctx, "alice")
	if err != nil {
		t.Fatalf("get best: %v", err)
	}
	if best != 5 {
		t.Fatalf("lower score must not overwrite, got %d", best)
	}

	if err := store.UpsertIfHigher(ctx, "alice", 7); err != nil {
		t.Fatalf("upsert higher: %v", err)
	}
	if best, _ := store.GetBest(ctx, "alice"); best != 7 {
		t.Fatalf("expected 7, got %d", best)
	}
}

func TestTopNOrderAndIdempotence(t *testing.T) {
	ctx := context.Background()
	store := NewScoreStore()
	for nickname, score := range map[string]int{"alice": 3, "bob": 7, "carol": 5} {
		if err := store.UpsertIfHigher(ctx, nickname, score); err != nil {
			t.Fatalf("upsert %s: %v", nickname, err)
		}
	}

	first, err := store.TopN(ctx, 2)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(first) != 2 || first[0].Nickname != "bob" || first[1].Nickname != "carol" {
		t.Fatalf("unexpected order: %+v", first)
	}

	second, err := store.TopN(ctx, 2)
	if err != nil {
		t.Fatalf("topN again: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repeated query must match: %+v vs %+v", first, second)
		}
	}
}
