package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"hotel-trivia-service/internal/domain"
	"hotel-trivia-service/internal/infra/memory"
)

func dispatcherFixture(t *testing.T, staticCount int) (*Dispatcher, *memory.ProgressStore, domain.Quiz) {
	t.Helper()

	quiz := domain.Quiz{
		ID:                   "quiz-1",
		QuestionsPerCategory: 3,
		Categories: []domain.Category{
			{ID: "cat-geo", QuizID: "quiz-1", Title: "Geography", Position: 0},
			{ID: "cat-math", QuizID: "quiz-1", Title: "Quick Math", Position: 1, Dynamic: true},
		},
	}.Normalized()

	questions := make([]domain.Question, 0, staticCount)
	for i := 0; i < staticCount; i++ {
		id := fmt.Sprintf("q-%d", i)
		questions = append(questions, domain.Question{
			ID:         id,
			CategoryID: "cat-geo",
			Text:       fmt.Sprintf("Question %d?", i),
			Active:     true,
			Options: []domain.AnswerOption{
				{ID: id + "-a", QuestionID: id, Text: "right", Correct: true},
				{ID: id + "-b", QuestionID: id, Text: "wrong 1"},
				{ID: id + "-c", QuestionID: id, Text: "wrong 2"},
				{ID: id + "-d", QuestionID: id, Text: "wrong 3"},
			},
		})
	}

	catalog := memory.NewStaticCatalog(
		map[string]domain.Quiz{quiz.ID: quiz},
		map[string][]domain.Question{"cat-geo": questions},
	)
	progress := memory.NewProgressStore()
	dispatcher := newDispatcherWithRand(catalog, progress, rand.New(rand.NewSource(42)))
	return dispatcher, progress, quiz
}

func TestDispatcherStaticExactCount(t *testing.T) {
	dispatcher, _, quiz := dispatcherFixture(t, 5)

	payloads, err := dispatcher.Fetch(context.Background(), quiz, quiz.Categories[0], "player-1", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}
	for _, p := range payloads {
		if p.QuestionID == "" || p.Math != nil {
			t.Fatalf("static payload malformed: %+v", p)
		}
		if len(p.Options) != 4 {
			t.Fatalf("expected 4 options, got %v", p.Options)
		}
	}
}

func TestDispatcherStaticPrefersUnseen(t *testing.T) {
	dispatcher, progress, quiz := dispatcherFixture(t, 5)
	ctx := context.Background()

	first, err := dispatcher.Fetch(ctx, quiz, quiz.Categories[0], "player-1", 3)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	seen, err := progress.SeenQuestions(ctx, "player-1", quiz.ID, "cat-geo")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 seen after first fetch, got %d", len(seen))
	}
	for _, p := range first {
		if _, ok := seen[p.QuestionID]; !ok {
			t.Fatalf("dispatched question %s not marked seen", p.QuestionID)
		}
	}

	// Second fetch must include both remaining unseen questions, topping up
	// from the seen pool to keep the batch size.
	second, err := dispatcher.Fetch(ctx, quiz, quiz.Categories[0], "player-1", 3)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	got := make(map[string]struct{}, len(second))
	for _, p := range second {
		got[p.QuestionID] = struct{}{}
	}
	unseenServed := 0
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("q-%d", i)
		if _, wasSeen := seen[id]; wasSeen {
			continue
		}
		if _, ok := got[id]; ok {
			unseenServed++
		}
	}
	if unseenServed != 2 {
		t.Fatalf("expected both unseen questions in second batch, got %d of 2", unseenServed)
	}
	if len(second) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(second))
	}
}

func TestDispatcherStaticAllSeenStillFillsBatch(t *testing.T) {
	dispatcher, progress, quiz := dispatcherFixture(t, 3)
	ctx := context.Background()

	if err := progress.MarkQuestionsSeen(ctx, "player-1", quiz.ID, "cat-geo", []string{"q-0", "q-1", "q-2"}); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	payloads, err := dispatcher.Fetch(ctx, quiz, quiz.Categories[0], "player-1", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected full batch from seen pool, got %d", len(payloads))
	}
}

func TestDispatcherStaticInsufficientContent(t *testing.T) {
	dispatcher, _, quiz := dispatcherFixture(t, 2)

	_, err := dispatcher.Fetch(context.Background(), quiz, quiz.Categories[0], "player-1", 3)
	if !errors.Is(err, domain.ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent, got %v", err)
	}
}

func TestDispatcherDynamicBatch(t *testing.T) {
	dispatcher, progress, quiz := dispatcherFixture(t, 5)
	ctx := context.Background()

	payloads, err := dispatcher.Fetch(ctx, quiz, quiz.Categories[1], "player-1", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(payloads))
	}

	sigs := make(map[string]struct{}, len(payloads))
	for _, p := range payloads {
		if p.Math == nil || p.QuestionID != "" {
			t.Fatalf("dynamic payload malformed: %+v", p)
		}
		if p.Text != p.Math.Prompt() {
			t.Fatalf("prompt mismatch: %q vs %q", p.Text, p.Math.Prompt())
		}
		sig := p.Math.Signature()
		if _, dup := sigs[sig]; dup {
			t.Fatalf("duplicate signature %s within one batch", sig)
		}
		sigs[sig] = struct{}{}
	}

	seen, err := progress.SeenSignatures(ctx, "player-1", quiz.ID)
	if err != nil {
		t.Fatalf("seen signatures: %v", err)
	}
	for sig := range sigs {
		if _, ok := seen[sig]; !ok {
			t.Fatalf("signature %s not marked seen", sig)
		}
	}
}
