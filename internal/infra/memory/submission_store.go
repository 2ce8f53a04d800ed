package memory

import (
	"context"
	"sync"

	"hotel-trivia-service/internal/domain"
)

// SubmissionStore is an in-memory append-only submission log.
type SubmissionStore struct {
	mu          sync.RWMutex
	bySessionID map[string][]domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{bySessionID: make(map[string][]domain.Submission)}
}

func (s *SubmissionStore) Append(_ context.Context, submission *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySessionID[submission.SessionID] = append(s.bySessionID[submission.SessionID], *submission)
	return nil
}

func (s *SubmissionStore) CountByCategory(_ context.Context, sessionID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, sub := range s.bySessionID[sessionID] {
		counts[sub.CategoryID]++
	}
	return counts, nil
}

// BySession returns the recorded submissions in insertion order. Test helper.
func (s *SubmissionStore) BySession(sessionID string) []domain.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, len(s.bySessionID[sessionID]))
	copy(out, s.bySessionID[sessionID])
	return out
}
