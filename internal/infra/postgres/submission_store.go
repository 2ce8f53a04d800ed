package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"hotel-trivia-service/internal/domain"
)

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions"`

	ID             string    `bun:"id,pk"`
	SessionID      string    `bun:"session_id,notnull"`
	CategoryID     string    `bun:"category_id,notnull"`
	QuestionText   string    `bun:"question_text,notnull"`
	CorrectAnswer  string    `bun:"correct_answer,notnull"`
	SelectedAnswer string    `bun:"selected_answer,notnull"`
	Correct        bool      `bun:"is_correct,notnull"`
	ElapsedSeconds int       `bun:"elapsed_seconds,notnull"`
	MultiplierUsed int       `bun:"multiplier_used,notnull"`
	PointsAwarded  int       `bun:"points_awarded,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// SubmissionStore is the append-only submission log in Postgres.
type SubmissionStore struct {
	db *bun.DB
}

func NewSubmissionStore(db *bun.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func (s *SubmissionStore) Append(ctx context.Context, submission *domain.Submission) error {
	row := submissionRow{
		ID:             submission.ID,
		SessionID:      submission.SessionID,
		CategoryID:     submission.CategoryID,
		QuestionText:   submission.QuestionText,
		CorrectAnswer:  submission.CorrectAnswer,
		SelectedAnswer: submission.SelectedAnswer,
		Correct:        submission.Correct,
		ElapsedSeconds: submission.ElapsedSeconds,
		MultiplierUsed: submission.MultiplierUsed,
		PointsAwarded:  submission.PointsAwarded,
		CreatedAt:      submission.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) CountByCategory(ctx context.Context, sessionID string) (map[string]int, error) {
	var rows []struct {
		CategoryID string `bun:"category_id"`
		Count      int    `bun:"n"`
	}
	err := s.db.NewSelect().
		Model((*submissionRow)(nil)).
		Column("category_id").
		ColumnExpr("count(*) AS n").
		Where("session_id = ?", sessionID).
		Group("category_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}
