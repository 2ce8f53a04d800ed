package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hotel-trivia-service/internal/domain"
)

// CatalogLoader reads quiz configuration and question content from Postgres.
// It sits behind the Redis/memory catalog cache, so queries stay simple.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx, `
		SELECT id, title, questions_per_category, time_budget_seconds, turbo_threshold, turbo_multiplier
		FROM quizzes WHERE id = $1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.QuestionsPerCategory, &quiz.TimeBudgetSeconds,
			&quiz.TurboThreshold, &quiz.TurboMultiplier)
	if err == pgx.ErrNoRows {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, quiz_id, title, position, is_dynamic
		FROM categories WHERE quiz_id = $1 ORDER BY position`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.QuizID, &c.Title, &c.Position, &c.Dynamic); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan category: %w", err)
		}
		quiz.Categories = append(quiz.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("read categories: %w", err)
	}
	return quiz, nil
}

func (l *CatalogLoader) LoadQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT q.id, q.category_id, q.text, q.is_active, o.id, o.text, o.is_correct
		FROM questions q
		JOIN answer_options o ON o.question_id = q.id
		WHERE q.category_id = $1 AND q.is_active
		ORDER BY q.id, o.id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	index := make(map[string]int)
	for rows.Next() {
		var q domain.Question
		var opt domain.AnswerOption
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Text, &q.Active, &opt.ID, &opt.Text, &opt.Correct); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		opt.QuestionID = q.ID
		i, ok := index[q.ID]
		if !ok {
			i = len(questions)
			index[q.ID] = i
			questions = append(questions, q)
		}
		questions[i].Options = append(questions[i].Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}
