package app

import (
	"context"
	"time"

	"hotel-trivia-service/internal/domain"
)

// CatalogRepository serves quiz configuration and static question content
// (from cache/backing store).
type CatalogRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ActiveQuestions(ctx context.Context, categoryID string) ([]domain.Question, error)
}

// SessionStore persists quiz sessions. Update must compare the session's
// Version against the stored row and return domain.ErrVersionConflict on a
// stale write, so concurrent submissions cannot silently drop deltas.
type SessionStore interface {
	Create(ctx context.Context, session *domain.QuizSession) error
	Get(ctx context.Context, id string) (domain.QuizSession, error)
	Update(ctx context.Context, session *domain.QuizSession) error
}

// SubmissionStore is append-only storage for recorded answers.
type SubmissionStore interface {
	Append(ctx context.Context, submission *domain.Submission) error
	CountByCategory(ctx context.Context, sessionID string) (map[string]int, error)
}

// ProgressStore tracks which questions and arithmetic signatures a player
// token has already been shown. Writes must be atomic per (token, quiz).
type ProgressStore interface {
	SeenQuestions(ctx context.Context, playerToken, quizID, categoryID string) (map[string]struct{}, error)
	MarkQuestionsSeen(ctx context.Context, playerToken, quizID, categoryID string, questionIDs []string) error
	SeenSignatures(ctx context.Context, playerToken, quizID string) (map[string]struct{}, error)
	MarkSignatureSeen(ctx context.Context, playerToken, quizID, signature string) error
}

// LeaderboardStore lists completed sessions in ranking order: score
// descending, then completion duration ascending. A zero since means no
// period filter; tournament restricts to non-practice sessions with a room.
type LeaderboardStore interface {
	CompletedSessions(ctx context.Context, quizID, venueID string, tournament bool, since time.Time, limit int) ([]domain.QuizSession, error)
}

// CompletionNotifier is told whenever a session reaches its terminal state.
// Used by the live leaderboard feed; a nil notifier is fine.
type CompletionNotifier interface {
	SessionCompleted(session domain.QuizSession)
}
