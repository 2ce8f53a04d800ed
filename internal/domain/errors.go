package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz configuration could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrCategoryNotFound indicates a category ID does not belong to the quiz.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrSessionNotFound is returned when a session ID does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionNotFound indicates a submitted question reference is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionCompleted is returned when acting on a finished session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrCategoryMismatch is returned when an answer targets a category other
	// than the session's current one.
	ErrCategoryMismatch = errors.New("category is not the session's current category")
	// ErrMalformedSubmission covers missing or inconsistent answer input,
	// including dynamic echoes whose claimed answer does not match the operands.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrInsufficientContent means the catalog cannot supply the required
	// question count even after falling back to the seen pool.
	ErrInsufficientContent = errors.New("insufficient question content")
	// ErrVersionConflict signals a concurrent update to the same session row.
	// The service retries it once; it never reaches callers under normal load.
	ErrVersionConflict = errors.New("session was modified concurrently")
)
