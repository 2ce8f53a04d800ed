package memory

import (
	"context"
	"sync"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. Seen
// sets grow monotonically per (player token, quiz).
type ProgressStore struct {
	mu         sync.Mutex
	questions  map[progressKey]map[string]struct{}
	signatures map[signatureKey]map[string]struct{}
}

type progressKey struct {
	playerToken string
	quizID      string
	categoryID  string
}

type signatureKey struct {
	playerToken string
	quizID      string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		questions:  make(map[progressKey]map[string]struct{}),
		signatures: make(map[signatureKey]map[string]struct{}),
	}
}

func (s *ProgressStore) SeenQuestions(_ context.Context, playerToken, quizID, categoryID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.questions[progressKey{playerToken, quizID, categoryID}]), nil
}

func (s *ProgressStore) MarkQuestionsSeen(_ context.Context, playerToken, quizID, categoryID string, questionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{playerToken, quizID, categoryID}
	set, ok := s.questions[key]
	if !ok {
		set = make(map[string]struct{})
		s.questions[key] = set
	}
	for _, id := range questionIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (s *ProgressStore) SeenSignatures(_ context.Context, playerToken, quizID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.signatures[signatureKey{playerToken, quizID}]), nil
}

func (s *ProgressStore) MarkSignatureSeen(_ context.Context, playerToken, quizID, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := signatureKey{playerToken, quizID}
	set, ok := s.signatures[key]
	if !ok {
		set = make(map[string]struct{})
		s.signatures[key] = set
	}
	set[signature] = struct{}{}
	return nil
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
