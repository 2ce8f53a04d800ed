package memory

import (
	"context"
	"sort"

	"hotel-trivia-service/internal/domain"
)

// CatalogLoader fetches catalog content from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuestions(ctx context.Context, categoryID string) ([]domain.Question, error)
}

// StaticCatalog is a loader backed by in-memory maps (useful for tests/demos
// and for running the kiosk without Postgres). It doubles as a
// CatalogRepository directly.
type StaticCatalog struct {
	quizzes   map[string]domain.Quiz
	questions map[string][]domain.Question
}

func NewStaticCatalog(quizzes map[string]domain.Quiz, questionsByCategory map[string][]domain.Question) *StaticCatalog {
	return &StaticCatalog{quizzes: quizzes, questions: questionsByCategory}
}

func (c *StaticCatalog) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	sort.Slice(quiz.Categories, func(i, j int) bool {
		return quiz.Categories[i].Position < quiz.Categories[j].Position
	})
	return quiz, nil
}

func (c *StaticCatalog) LoadQuestions(_ context.Context, categoryID string) ([]domain.Question, error) {
	questions := c.questions[categoryID]
	active := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Active {
			active = append(active, q)
		}
	}
	return active, nil
}

func (c *StaticCatalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return c.LoadQuiz(ctx, quizID)
}

func (c *StaticCatalog) ActiveQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	return c.LoadQuestions(ctx, categoryID)
}
