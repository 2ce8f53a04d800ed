package domain

import "time"

// Quiz is the immutable configuration of one game variant: an ordered list of
// categories plus the scoring knobs shared by every session of that quiz.
type Quiz struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	QuestionsPerCategory int        `json:"questionsPerCategory"` // defaults to 10 if zero
	TimeBudgetSeconds    int        `json:"timeBudgetSeconds"`    // defaults to 5 if zero
	TurboThreshold       int        `json:"turboThreshold"`       // defaults to 5 if zero
	TurboMultiplier      int        `json:"turboMultiplier"`      // defaults to 2 if zero
	Categories           []Category `json:"categories"`
}

// Defaults for the reference configuration.
const (
	DefaultQuestionsPerCategory = 10
	DefaultTimeBudgetSeconds    = 5
	DefaultTurboThreshold       = 5
	DefaultTurboMultiplier      = 2
)

// Normalized returns a copy with zero-valued knobs replaced by defaults.
func (q Quiz) Normalized() Quiz {
	if q.QuestionsPerCategory == 0 {
		q.QuestionsPerCategory = DefaultQuestionsPerCategory
	}
	if q.TimeBudgetSeconds == 0 {
		q.TimeBudgetSeconds = DefaultTimeBudgetSeconds
	}
	if q.TurboThreshold == 0 {
		q.TurboThreshold = DefaultTurboThreshold
	}
	if q.TurboMultiplier == 0 {
		q.TurboMultiplier = DefaultTurboMultiplier
	}
	return q
}

// CategoryByID looks up a category within the quiz.
func (q Quiz) CategoryByID(id string) (Category, bool) {
	for _, c := range q.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Category is an ordered topical bucket of questions; the unit of progression.
type Category struct {
	ID       string `json:"id"`
	QuizID   string `json:"quizId"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Dynamic  bool   `json:"dynamic"` // true only for the arithmetic category
}

// Question is a static catalog question with exactly one correct option.
type Question struct {
	ID         string         `json:"id"`
	CategoryID string         `json:"categoryId"`
	Text       string         `json:"text"`
	Active     bool           `json:"active"`
	Options    []AnswerOption `json:"options"`
}

// CorrectOption returns the option flagged correct. The catalog guarantees
// exactly one per question; a false return means broken content.
func (q Question) CorrectOption() (AnswerOption, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return AnswerOption{}, false
}

// AnswerOption is one of the fixed answer choices of a static question.
type AnswerOption struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// SessionState is the lifecycle state of a QuizSession.
type SessionState string

const (
	SessionCreated    SessionState = "created"
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
)

// QuizSession is one player's run through a quiz. Counters are mutated only
// through the scoring transition; writers must go through the versioned
// store update so concurrent submissions cannot apply deltas to stale state.
type QuizSession struct {
	ID                 string       `json:"id"`
	QuizID             string       `json:"quizId"`
	PlayerName         string       `json:"playerName"`
	PlayerToken        string       `json:"playerToken"`
	VenueID            string       `json:"venueId,omitempty"`
	RoomNumber         string       `json:"roomNumber,omitempty"`
	Practice           bool         `json:"practice"`
	CategoryIndex      int          `json:"categoryIndex"`
	Score              int          `json:"score"`
	ConsecutiveCorrect int          `json:"consecutiveCorrect"`
	Multiplier         int          `json:"multiplier"`
	State              SessionState `json:"state"`
	Version            int64        `json:"-"`
	StartedAt          time.Time    `json:"startedAt"`
	CompletedAt        *time.Time   `json:"completedAt,omitempty"`
}

// TurboActive reports whether the streak has reached the activation
// threshold. Derived from the counter, never stored independently.
func (s QuizSession) TurboActive(threshold int) bool {
	return s.ConsecutiveCorrect >= threshold
}

// TournamentEligible reports whether the session may appear on the
// tournament leaderboard: a non-practice run tied to a room.
func (s QuizSession) TournamentEligible() bool {
	return !s.Practice && s.RoomNumber != ""
}

// DurationSeconds is the wall time from start to completion, used as the
// leaderboard tie-break. Zero until the session completes.
func (s QuizSession) DurationSeconds() int {
	if s.CompletedAt == nil {
		return 0
	}
	return int(s.CompletedAt.Sub(s.StartedAt) / time.Second)
}

// Submission is one recorded answer. Question and answer texts are frozen at
// submission time so later display does not depend on the live catalog.
// Rows are append-only.
type Submission struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	CategoryID     string    `json:"categoryId"`
	QuestionText   string    `json:"questionText"`
	CorrectAnswer  string    `json:"correctAnswer"`
	SelectedAnswer string    `json:"selectedAnswer"`
	Correct        bool      `json:"correct"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	MultiplierUsed int       `json:"multiplierUsed"`
	PointsAwarded  int       `json:"pointsAwarded"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SessionTotals is the running-totals view returned with every answer.
type SessionTotals struct {
	Score              int          `json:"score"`
	ConsecutiveCorrect int          `json:"consecutiveCorrect"`
	Multiplier         int          `json:"multiplier"`
	TurboActive        bool         `json:"turboActive"`
	Submissions        int          `json:"submissions"`
	State              SessionState `json:"state"`
}

// CategoryProgress is the submitted/required count for one category.
type CategoryProgress struct {
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
	Submitted  int    `json:"submitted"`
	Required   int    `json:"required"`
}

// SubmissionResult is the outcome of one answer, including the correct
// answer text for client-side feedback regardless of correctness.
type SubmissionResult struct {
	Correct        bool          `json:"correct"`
	TimedOut       bool          `json:"timedOut"`
	CorrectAnswer  string        `json:"correctAnswer"`
	PointsAwarded  int           `json:"pointsAwarded"`
	MultiplierUsed int           `json:"multiplierUsed"`
	CategoryDone   bool          `json:"categoryDone"`
	GameCompleted  bool          `json:"gameCompleted"`
	Totals         SessionTotals `json:"totals"`
}

// AdvanceResult reports the next step of the category progression.
type AdvanceResult struct {
	HasNext       bool               `json:"hasNext"`
	NextCategory  *Category          `json:"nextCategory,omitempty"`
	GameCompleted bool               `json:"gameCompleted"`
	Progress      []CategoryProgress `json:"progress"`
	Totals        SessionTotals      `json:"totals"`
}

// QuestionPayload is one dispatched question as shown to the player. Static
// questions carry their catalog ID; arithmetic ones carry the generating
// parameters the client must echo back on submission.
type QuestionPayload struct {
	QuestionID string   `json:"questionId,omitempty"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Math       *MathRef `json:"math,omitempty"`
}

// QuestionRef identifies the question an answer is addressed to: either a
// catalog ID or an echoed arithmetic tuple, never both.
type QuestionRef struct {
	QuestionID string   `json:"questionId,omitempty"`
	Math       *MathRef `json:"math,omitempty"`
}

// LeaderboardMode selects the general or tournament-restricted view.
type LeaderboardMode string

const (
	LeaderboardGeneral    LeaderboardMode = "general"
	LeaderboardTournament LeaderboardMode = "tournament"
)

// LeaderboardPeriod filters completed sessions by completion time.
type LeaderboardPeriod string

const (
	PeriodDaily  LeaderboardPeriod = "daily"
	PeriodWeekly LeaderboardPeriod = "weekly"
	PeriodAll    LeaderboardPeriod = "all"
)

// LeaderboardEntry is one ranked row. Rank is the 1-based position in the
// ordered, filtered, limited result set and is recomputed at query time.
type LeaderboardEntry struct {
	Rank            int       `json:"rank"`
	SessionID       string    `json:"sessionId"`
	PlayerName      string    `json:"playerName"`
	RoomNumber      string    `json:"roomNumber,omitempty"`
	Score           int       `json:"score"`
	DurationSeconds int       `json:"durationSeconds"`
	CompletedAt     time.Time `json:"completedAt"`
}

// Leaderboard is a ranked view over completed sessions for a quiz+venue.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	VenueID   string             `json:"venueId,omitempty"`
	Mode      LeaderboardMode    `json:"mode"`
	Period    LeaderboardPeriod  `json:"period"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
