package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hotel-trivia-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore with
// optimistic versioning, plus the leaderboard listing over its own rows.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.QuizSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.QuizSession)}
}

func (s *SessionStore) Create(_ context.Context, session *domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Version = 1
	s.sessions[session.ID] = *session
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// Update applies the write only if the caller read the latest version,
// mirroring the WHERE version = ? guard of the Postgres store.
func (s *SessionStore) Update(_ context.Context, session *domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if stored.Version != session.Version {
		return domain.ErrVersionConflict
	}
	session.Version++
	s.sessions[session.ID] = *session
	return nil
}

// CompletedSessions implements app.LeaderboardStore: completed sessions for
// the quiz+venue ordered by score descending, then completion duration
// ascending, then completion time, then ID for determinism.
func (s *SessionStore) CompletedSessions(_ context.Context, quizID, venueID string, tournament bool, since time.Time, limit int) ([]domain.QuizSession, error) {
	s.mu.RLock()
	matched := make([]domain.QuizSession, 0)
	for _, session := range s.sessions {
		if session.State != domain.SessionCompleted || session.CompletedAt == nil {
			continue
		}
		if session.QuizID != quizID || session.VenueID != venueID {
			continue
		}
		if tournament && !session.TournamentEligible() {
			continue
		}
		if !since.IsZero() && session.CompletedAt.Before(since) {
			continue
		}
		matched = append(matched, session)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		di, dj := matched[i].DurationSeconds(), matched[j].DurationSeconds()
		if di != dj {
			return di < dj
		}
		if !matched[i].CompletedAt.Equal(*matched[j].CompletedAt) {
			return matched[i].CompletedAt.Before(*matched[j].CompletedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
