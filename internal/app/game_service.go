package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel-trivia-service/internal/domain"
)

// GameService contains the core trivia use cases: session lifecycle,
// question dispatch, answer validation/scoring, category progression, and
// leaderboard reads.
type GameService struct {
	catalog     CatalogRepository
	sessions    SessionStore
	submissions SubmissionStore
	dispatcher  *Dispatcher
	leaderboard LeaderboardStore
	notifier    CompletionNotifier
	now         func() time.Time
}

func NewGameService(catalog CatalogRepository, sessions SessionStore, submissions SubmissionStore, dispatcher *Dispatcher, leaderboard LeaderboardStore) *GameService {
	return &GameService{
		catalog:     catalog,
		sessions:    sessions,
		submissions: submissions,
		dispatcher:  dispatcher,
		leaderboard: leaderboard,
		now:         time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// SetCompletionNotifier wires the live leaderboard feed. Must be called
// before the service starts handling requests.
func (s *GameService) SetCompletionNotifier(n CompletionNotifier) {
	s.notifier = n
}

// StartSessionInput carries everything needed to begin a run. PlayerToken is
// the client-generated identity used for anti-repeat tracking; sessions with
// a room number and practice off are tournament-eligible.
type StartSessionInput struct {
	QuizID      string
	PlayerName  string
	PlayerToken string
	VenueID     string
	RoomNumber  string
	Practice    bool
}

// SessionBundle is the start-session response: the new session plus the
// first category's question batch.
type SessionBundle struct {
	Session   domain.QuizSession       `json:"session"`
	Quiz      domain.Quiz              `json:"quiz"`
	Category  domain.Category          `json:"category"`
	Questions []domain.QuestionPayload `json:"questions"`
}

// StartSession creates a session in the created state and dispatches the
// first category's questions.
func (s *GameService) StartSession(ctx context.Context, input StartSessionInput) (SessionBundle, error) {
	if strings.TrimSpace(input.PlayerName) == "" || strings.TrimSpace(input.PlayerToken) == "" {
		return SessionBundle{}, fmt.Errorf("%w: player name and token are required", domain.ErrMalformedSubmission)
	}

	quiz, err := s.loadQuiz(ctx, input.QuizID)
	if err != nil {
		return SessionBundle{}, err
	}
	if len(quiz.Categories) == 0 {
		return SessionBundle{}, fmt.Errorf("%w: quiz %s has no categories", domain.ErrInsufficientContent, quiz.ID)
	}

	session := domain.QuizSession{
		ID:          uuid.NewString(),
		QuizID:      quiz.ID,
		PlayerName:  strings.TrimSpace(input.PlayerName),
		PlayerToken: input.PlayerToken,
		VenueID:     input.VenueID,
		RoomNumber:  strings.TrimSpace(input.RoomNumber),
		Practice:    input.Practice,
		Multiplier:  1,
		State:       domain.SessionCreated,
		StartedAt:   s.now(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return SessionBundle{}, err
	}

	first := quiz.Categories[0]
	questions, err := s.dispatcher.Fetch(ctx, quiz, first, session.PlayerToken, quiz.QuestionsPerCategory)
	if err != nil {
		return SessionBundle{}, err
	}

	return SessionBundle{Session: session, Quiz: quiz, Category: first, Questions: questions}, nil
}

// FetchCategoryQuestions dispatches a batch for the given category. Repeated
// calls before submitting reselect (unseen preferred); the seen-set is a set,
// so re-marking cannot duplicate entries.
func (s *GameService) FetchCategoryQuestions(ctx context.Context, sessionID, categoryID string) ([]domain.QuestionPayload, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State == domain.SessionCompleted {
		return nil, domain.ErrSessionCompleted
	}
	quiz, err := s.loadQuiz(ctx, session.QuizID)
	if err != nil {
		return nil, err
	}
	category, ok := quiz.CategoryByID(categoryID)
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return s.dispatcher.Fetch(ctx, quiz, category, session.PlayerToken, quiz.QuestionsPerCategory)
}

// SubmitInput is one answer event.
type SubmitInput struct {
	SessionID      string
	CategoryID     string
	Ref            domain.QuestionRef
	SelectedAnswer string
	ElapsedSeconds int
}

// SubmitAnswer validates one answer against the session's current category,
// scores it, persists the submission, and applies the counter deltas
// atomically. The last submission of the last category completes the game
// without waiting for an explicit advance.
func (s *GameService) SubmitAnswer(ctx context.Context, input SubmitInput) (domain.SubmissionResult, error) {
	session, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if session.State == domain.SessionCompleted {
		return domain.SubmissionResult{}, domain.ErrSessionCompleted
	}

	quiz, err := s.loadQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if _, ok := quiz.CategoryByID(input.CategoryID); !ok {
		return domain.SubmissionResult{}, domain.ErrCategoryNotFound
	}

	counts, err := s.submissions.CountByCategory(ctx, input.SessionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	// The server re-derives the current category from recorded submissions;
	// the client's view is not trusted.
	current, ok := currentCategory(quiz, counts)
	if !ok {
		return domain.SubmissionResult{}, domain.ErrSessionCompleted
	}
	if current.ID != input.CategoryID {
		return domain.SubmissionResult{}, fmt.Errorf("%w: current is %s", domain.ErrCategoryMismatch, current.ID)
	}

	questionText, correctAnswer, err := s.resolveTruth(ctx, current, input.Ref)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	selected := strings.TrimSpace(input.SelectedAnswer)
	if selected == "" {
		return domain.SubmissionResult{}, fmt.Errorf("%w: selected answer is required", domain.ErrMalformedSubmission)
	}
	isCorrect := selected == correctAnswer

	var score ScoreResult
	session, err = s.updateSession(ctx, input.SessionID, func(sess *domain.QuizSession) error {
		if sess.State == domain.SessionCompleted {
			return domain.ErrSessionCompleted
		}
		score = Score(quiz, *sess, input.ElapsedSeconds, isCorrect)
		score.apply(sess)
		return nil
	})
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	submission := domain.Submission{
		ID:             uuid.NewString(),
		SessionID:      session.ID,
		CategoryID:     current.ID,
		QuestionText:   questionText,
		CorrectAnswer:  correctAnswer,
		SelectedAnswer: selected,
		Correct:        score.Correct,
		ElapsedSeconds: clampElapsed(input.ElapsedSeconds),
		MultiplierUsed: score.MultiplierUsed,
		PointsAwarded:  score.PointsAwarded,
		CreatedAt:      s.now(),
	}
	if err := s.submissions.Append(ctx, &submission); err != nil {
		return domain.SubmissionResult{}, err
	}

	// Recount from storage so the exhaustion/completion check sees every
	// concurrent writer's rows, then converge through the shared check.
	counts, err = s.submissions.CountByCategory(ctx, session.ID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	categoryDone := counts[current.ID] >= quiz.QuestionsPerCategory
	gameCompleted := allCategoriesComplete(quiz, counts)
	if gameCompleted {
		if session, err = s.markCompleted(ctx, session.ID); err != nil {
			return domain.SubmissionResult{}, err
		}
	}

	return domain.SubmissionResult{
		Correct:        score.Correct,
		TimedOut:       score.TimedOut,
		CorrectAnswer:  correctAnswer,
		PointsAwarded:  score.PointsAwarded,
		MultiplierUsed: score.MultiplierUsed,
		CategoryDone:   categoryDone,
		GameCompleted:  gameCompleted,
		Totals:         totals(quiz, session, counts),
	}, nil
}

// Advance recomputes per-category progress and returns the first incomplete
// category in configured order, or completes the game when none remains.
// Completion here and in SubmitAnswer converge through markCompleted.
func (s *GameService) Advance(ctx context.Context, sessionID, categoryID string) (domain.AdvanceResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	quiz, err := s.loadQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	if _, ok := quiz.CategoryByID(categoryID); !ok {
		return domain.AdvanceResult{}, domain.ErrCategoryNotFound
	}

	counts, err := s.submissions.CountByCategory(ctx, sessionID)
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	progress := progressFor(quiz, counts)

	next, hasNext := currentCategory(quiz, counts)
	if !hasNext {
		if session, err = s.markCompleted(ctx, sessionID); err != nil {
			return domain.AdvanceResult{}, err
		}
		return domain.AdvanceResult{
			GameCompleted: true,
			Progress:      progress,
			Totals:        totals(quiz, session, counts),
		}, nil
	}

	if session.State == domain.SessionCompleted {
		// Forced completion with categories outstanding; nothing to advance to.
		return domain.AdvanceResult{}, domain.ErrSessionCompleted
	}

	if session.CategoryIndex != next.Position {
		session, err = s.updateSession(ctx, sessionID, func(sess *domain.QuizSession) error {
			sess.CategoryIndex = next.Position
			return nil
		})
		if err != nil {
			return domain.AdvanceResult{}, err
		}
	}

	nextCopy := next
	return domain.AdvanceResult{
		HasNext:      true,
		NextCategory: &nextCopy,
		Progress:     progress,
		Totals:       totals(quiz, session, counts),
	}, nil
}

// Complete forces the session into its terminal state regardless of
// submission counts. Used for timeout/abandon; idempotent.
func (s *GameService) Complete(ctx context.Context, sessionID string) (domain.SessionTotals, error) {
	session, err := s.markCompleted(ctx, sessionID)
	if err != nil {
		return domain.SessionTotals{}, err
	}
	quiz, err := s.loadQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.SessionTotals{}, err
	}
	counts, err := s.submissions.CountByCategory(ctx, sessionID)
	if err != nil {
		return domain.SessionTotals{}, err
	}
	return totals(quiz, session, counts), nil
}

// SessionSnapshot is the reconnect view of a running or finished session.
type SessionSnapshot struct {
	Session         domain.QuizSession        `json:"session"`
	CurrentCategory *domain.Category          `json:"currentCategory,omitempty"`
	Progress        []domain.CategoryProgress `json:"progress"`
	Totals          domain.SessionTotals      `json:"totals"`
}

// Snapshot returns current totals and per-category progress.
func (s *GameService) Snapshot(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	quiz, err := s.loadQuiz(ctx, session.QuizID)
	if err != nil {
		return SessionSnapshot{}, err
	}
	counts, err := s.submissions.CountByCategory(ctx, sessionID)
	if err != nil {
		return SessionSnapshot{}, err
	}

	snapshot := SessionSnapshot{
		Session:  session,
		Progress: progressFor(quiz, counts),
		Totals:   totals(quiz, session, counts),
	}
	if session.State != domain.SessionCompleted {
		if current, ok := currentCategory(quiz, counts); ok {
			snapshot.CurrentCategory = &current
		}
	}
	return snapshot, nil
}

// LeaderboardQuery selects a ranked view. Zero values mean general mode,
// all-time period, and the default limit.
type LeaderboardQuery struct {
	QuizID  string
	VenueID string
	Mode    domain.LeaderboardMode
	Period  domain.LeaderboardPeriod
	Limit   int
}

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// Leaderboard serves the general or tournament-restricted ranking. Ranks are
// recomputed on every query, never stored.
func (s *GameService) Leaderboard(ctx context.Context, query LeaderboardQuery) (domain.Leaderboard, error) {
	if query.Mode == "" {
		query.Mode = domain.LeaderboardGeneral
	}
	if query.Mode != domain.LeaderboardGeneral && query.Mode != domain.LeaderboardTournament {
		return domain.Leaderboard{}, fmt.Errorf("%w: unknown leaderboard mode %q", domain.ErrMalformedSubmission, query.Mode)
	}
	if query.Period == "" {
		query.Period = domain.PeriodAll
	}
	if query.Limit <= 0 {
		query.Limit = defaultLeaderboardLimit
	}
	if query.Limit > maxLeaderboardLimit {
		query.Limit = maxLeaderboardLimit
	}

	now := s.now()
	var since time.Time
	switch query.Period {
	case domain.PeriodDaily:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case domain.PeriodWeekly:
		since = now.AddDate(0, 0, -7)
	case domain.PeriodAll:
	default:
		return domain.Leaderboard{}, fmt.Errorf("%w: unknown leaderboard period %q", domain.ErrMalformedSubmission, query.Period)
	}

	tournament := query.Mode == domain.LeaderboardTournament
	sessions, err := s.leaderboard.CompletedSessions(ctx, query.QuizID, query.VenueID, tournament, since, query.Limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, len(sessions))
	for i, sess := range sessions {
		completedAt := sess.StartedAt
		if sess.CompletedAt != nil {
			completedAt = *sess.CompletedAt
		}
		entries[i] = domain.LeaderboardEntry{
			Rank:            i + 1,
			SessionID:       sess.ID,
			PlayerName:      sess.PlayerName,
			RoomNumber:      sess.RoomNumber,
			Score:           sess.Score,
			DurationSeconds: sess.DurationSeconds(),
			CompletedAt:     completedAt,
		}
	}

	return domain.Leaderboard{
		QuizID:    query.QuizID,
		VenueID:   query.VenueID,
		Mode:      query.Mode,
		Period:    query.Period,
		Entries:   entries,
		UpdatedAt: now,
	}, nil
}

// resolveTruth resolves the ground-truth question text and correct answer:
// from the catalog for static questions, from the recomputed echo for
// dynamic ones. A claimed answer that disagrees with the operands is
// rejected so a forged "correct answer" cannot score.
func (s *GameService) resolveTruth(ctx context.Context, category domain.Category, ref domain.QuestionRef) (string, string, error) {
	if category.Dynamic {
		if ref.Math == nil {
			return "", "", fmt.Errorf("%w: dynamic answer must echo operands", domain.ErrMalformedSubmission)
		}
		computed, err := ref.Math.Compute()
		if err != nil {
			return "", "", err
		}
		if ref.Math.Answer != computed {
			return "", "", fmt.Errorf("%w: echoed answer %d does not match computed %d", domain.ErrMalformedSubmission, ref.Math.Answer, computed)
		}
		return ref.Math.Prompt(), strconv.Itoa(computed), nil
	}

	if ref.QuestionID == "" {
		return "", "", fmt.Errorf("%w: question id is required", domain.ErrMalformedSubmission)
	}
	questions, err := s.catalog.ActiveQuestions(ctx, category.ID)
	if err != nil {
		return "", "", err
	}
	for _, q := range questions {
		if q.ID != ref.QuestionID {
			continue
		}
		correct, ok := q.CorrectOption()
		if !ok {
			return "", "", fmt.Errorf("question %s has no correct option", q.ID)
		}
		return q.Text, correct.Text, nil
	}
	return "", "", domain.ErrQuestionNotFound
}

// updateSession performs a read-modify-write against the versioned store,
// retrying once on a concurrent-update conflict.
func (s *GameService) updateSession(ctx context.Context, sessionID string, mutate func(*domain.QuizSession) error) (domain.QuizSession, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		session, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return domain.QuizSession{}, err
		}
		if err := mutate(&session); err != nil {
			return domain.QuizSession{}, err
		}
		if err := s.sessions.Update(ctx, &session); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return domain.QuizSession{}, err
		}
		return session, nil
	}
	return domain.QuizSession{}, lastErr
}

// markCompleted is the single completion path shared by the implicit
// (last submission), explicit (advance), and forced (complete) routes.
func (s *GameService) markCompleted(ctx context.Context, sessionID string) (domain.QuizSession, error) {
	transitioned := false
	session, err := s.updateSession(ctx, sessionID, func(sess *domain.QuizSession) error {
		if sess.State == domain.SessionCompleted {
			return nil
		}
		now := s.now()
		sess.State = domain.SessionCompleted
		sess.CompletedAt = &now
		transitioned = true
		return nil
	})
	if err != nil {
		return domain.QuizSession{}, err
	}
	if transitioned && s.notifier != nil {
		s.notifier.SessionCompleted(session)
	}
	return session, nil
}

func (s *GameService) loadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz = quiz.Normalized()
	sort.Slice(quiz.Categories, func(i, j int) bool {
		return quiz.Categories[i].Position < quiz.Categories[j].Position
	})
	return quiz, nil
}

// currentCategory is the first category in order still short of its quota.
func currentCategory(quiz domain.Quiz, counts map[string]int) (domain.Category, bool) {
	for _, c := range quiz.Categories {
		if counts[c.ID] < quiz.QuestionsPerCategory {
			return c, true
		}
	}
	return domain.Category{}, false
}

func allCategoriesComplete(quiz domain.Quiz, counts map[string]int) bool {
	_, incomplete := currentCategory(quiz, counts)
	return !incomplete
}

func progressFor(quiz domain.Quiz, counts map[string]int) []domain.CategoryProgress {
	progress := make([]domain.CategoryProgress, len(quiz.Categories))
	for i, c := range quiz.Categories {
		submitted := counts[c.ID]
		if submitted > quiz.QuestionsPerCategory {
			submitted = quiz.QuestionsPerCategory
		}
		progress[i] = domain.CategoryProgress{
			CategoryID: c.ID,
			Title:      c.Title,
			Submitted:  submitted,
			Required:   quiz.QuestionsPerCategory,
		}
	}
	return progress
}

func totals(quiz domain.Quiz, session domain.QuizSession, counts map[string]int) domain.SessionTotals {
	total := 0
	for _, n := range counts {
		total += n
	}
	return domain.SessionTotals{
		Score:              session.Score,
		ConsecutiveCorrect: session.ConsecutiveCorrect,
		Multiplier:         session.Multiplier,
		TurboActive:        session.TurboActive(quiz.TurboThreshold),
		Submissions:        total,
		State:              session.State,
	}
}

func clampElapsed(elapsed int) int {
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
