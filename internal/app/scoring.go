package app

import "hotel-trivia-service/internal/domain"

// ScoreResult is the outcome of one scoring transition: the points and
// multiplier applied to this submission plus the counter values the session
// must carry into the next one.
type ScoreResult struct {
	Correct        bool
	TimedOut       bool
	PointsAwarded  int
	MultiplierUsed int
	NextMultiplier int
	NextStreak     int
}

// Score is the pure scoring transition. The time bonus decays linearly over
// the per-question budget, a correct answer doubles the multiplier for the
// next one, and any miss resets the streak. Elapsed times at or over the
// budget are forced misses regardless of the supplied correctness flag;
// negative elapsed clamps to zero. Never returns negative points.
func Score(quiz domain.Quiz, session domain.QuizSession, elapsedSeconds int, correct bool) ScoreResult {
	quiz = quiz.Normalized()

	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	timedOut := elapsedSeconds >= quiz.TimeBudgetSeconds
	if timedOut {
		correct = false
	}

	multiplier := session.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	result := ScoreResult{
		Correct:        correct,
		TimedOut:       timedOut,
		MultiplierUsed: multiplier,
	}

	if !correct {
		result.NextMultiplier = 1
		result.NextStreak = 0
		return result
	}

	base := quiz.TimeBudgetSeconds - elapsedSeconds
	result.PointsAwarded = base * multiplier
	result.NextMultiplier = multiplier * quiz.TurboMultiplier
	result.NextStreak = session.ConsecutiveCorrect + 1
	return result
}

// apply folds a score result into the session counters. The session state
// transition created -> in_progress happens on the first scored answer.
func (r ScoreResult) apply(session *domain.QuizSession) {
	session.Score += r.PointsAwarded
	session.ConsecutiveCorrect = r.NextStreak
	session.Multiplier = r.NextMultiplier
	if session.State == domain.SessionCreated {
		session.State = domain.SessionInProgress
	}
}
