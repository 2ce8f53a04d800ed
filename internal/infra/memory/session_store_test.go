package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-trivia-service/internal/domain"
)

func TestSessionStoreVersionedUpdate(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := domain.QuizSession{ID: "sess-1", QuizID: "quiz-1", Multiplier: 1, State: domain.SessionCreated}
	if err := store.Create(ctx, &session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", session.Version)
	}

	// Two readers of the same version: the second writer must conflict.
	a, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := store.Get(ctx, "sess-1")

	a.Score = 10
	if err := store.Update(ctx, &a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if a.Version != 2 {
		t.Fatalf("expected version bump, got %d", a.Version)
	}

	b.Score = 99
	if err := store.Update(ctx, &b); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for stale write, got %v", err)
	}

	stored, _ := store.Get(ctx, "sess-1")
	if stored.Score != 10 {
		t.Fatalf("stale write applied: %+v", stored)
	}
}

func TestSessionStoreGetUnknown(t *testing.T) {
	store := NewSessionStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	session := domain.QuizSession{ID: "nope"}
	if err := store.Update(context.Background(), &session); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
	}
}

func TestCompletedSessionsOrdering(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	seed := func(id string, score, durationSec int, completedAt time.Time) {
		t.Helper()
		session := domain.QuizSession{
			ID:          id,
			QuizID:      "quiz-1",
			Score:       score,
			State:       domain.SessionCompleted,
			StartedAt:   completedAt.Add(-time.Duration(durationSec) * time.Second),
			CompletedAt: &completedAt,
		}
		if err := store.Create(ctx, &session); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	seed("slow", 50, 120, base)
	seed("fast", 50, 60, base)
	seed("top", 80, 300, base)
	// Incomplete sessions never appear.
	running := domain.QuizSession{ID: "running", QuizID: "quiz-1", Score: 999, State: domain.SessionInProgress}
	if err := store.Create(ctx, &running); err != nil {
		t.Fatalf("seed running: %v", err)
	}

	sessions, err := store.CompletedSessions(ctx, "quiz-1", "", false, time.Time{}, 10)
	if err != nil {
		t.Fatalf("completed sessions: %v", err)
	}
	got := make([]string, len(sessions))
	for i, s := range sessions {
		got[i] = s.ID
	}
	want := []string{"top", "fast", "slow"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCompletedSessionsSinceFilter(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	old := base.Add(-48 * time.Hour)
	recent := base.Add(-time.Hour)
	for id, at := range map[string]time.Time{"old": old, "recent": recent} {
		at := at
		session := domain.QuizSession{
			ID: id, QuizID: "quiz-1", State: domain.SessionCompleted,
			StartedAt: at.Add(-time.Minute), CompletedAt: &at,
		}
		if err := store.Create(ctx, &session); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	sessions, err := store.CompletedSessions(ctx, "quiz-1", "", false, base.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("completed sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "recent" {
		t.Fatalf("since filter failed: %+v", sessions)
	}
}
