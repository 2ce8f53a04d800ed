package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"hotel-trivia-service/internal/domain"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:quiz_sessions"`

	ID                 string     `bun:"id,pk"`
	QuizID             string     `bun:"quiz_id,notnull"`
	PlayerName         string     `bun:"player_name,notnull"`
	PlayerToken        string     `bun:"player_token,notnull"`
	VenueID            string     `bun:"venue_id,notnull"`
	RoomNumber         string     `bun:"room_number,notnull"`
	Practice           bool       `bun:"practice,notnull"`
	CategoryIndex      int        `bun:"category_index,notnull"`
	Score              int        `bun:"score,notnull"`
	ConsecutiveCorrect int        `bun:"consecutive_correct,notnull"`
	Multiplier         int        `bun:"multiplier,notnull"`
	State              string     `bun:"state,notnull"`
	Version            int64      `bun:"version,notnull"`
	StartedAt          time.Time  `bun:"started_at,notnull"`
	CompletedAt        *time.Time `bun:"completed_at"`
}

// SessionStore persists quiz sessions in Postgres via bun. Updates carry a
// WHERE version guard so a stale read-modify-write affects zero rows instead
// of silently dropping a concurrent writer's deltas.
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.QuizSession) error {
	session.Version = 1
	row := toSessionRow(*session)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.QuizSession, error) {
	var row sessionRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("select session: %w", err)
	}
	return fromSessionRow(row), nil
}

func (s *SessionStore) Update(ctx context.Context, session *domain.QuizSession) error {
	row := toSessionRow(*session)
	row.Version = session.Version + 1
	res, err := s.db.NewUpdate().
		Model(&row).
		Where("id = ?", session.ID).
		Where("version = ?", session.Version).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		// Either the row vanished or someone else won the version race.
		var exists bool
		exists, err = s.db.NewSelect().Model((*sessionRow)(nil)).Where("id = ?", session.ID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if !exists {
			return domain.ErrSessionNotFound
		}
		return domain.ErrVersionConflict
	}
	session.Version = row.Version
	return nil
}

// CompletedSessions implements app.LeaderboardStore with an ordered range
// query: score descending, completion duration ascending, then completion
// time and ID for a deterministic total order.
func (s *SessionStore) CompletedSessions(ctx context.Context, quizID, venueID string, tournament bool, since time.Time, limit int) ([]domain.QuizSession, error) {
	var rows []sessionRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("state = ?", string(domain.SessionCompleted)).
		Where("quiz_id = ?", quizID).
		Where("venue_id = ?", venueID)
	if tournament {
		q = q.Where("practice = FALSE").Where("room_number <> ''")
	}
	if !since.IsZero() {
		q = q.Where("completed_at >= ?", since)
	}
	q = q.OrderExpr("score DESC").
		OrderExpr("EXTRACT(EPOCH FROM (completed_at - started_at)) ASC").
		OrderExpr("completed_at ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}

	sessions := make([]domain.QuizSession, len(rows))
	for i, row := range rows {
		sessions[i] = fromSessionRow(row)
	}
	return sessions, nil
}

func toSessionRow(s domain.QuizSession) sessionRow {
	return sessionRow{
		ID:                 s.ID,
		QuizID:             s.QuizID,
		PlayerName:         s.PlayerName,
		PlayerToken:        s.PlayerToken,
		VenueID:            s.VenueID,
		RoomNumber:         s.RoomNumber,
		Practice:           s.Practice,
		CategoryIndex:      s.CategoryIndex,
		Score:              s.Score,
		ConsecutiveCorrect: s.ConsecutiveCorrect,
		Multiplier:         s.Multiplier,
		State:              string(s.State),
		Version:            s.Version,
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
	}
}

func fromSessionRow(row sessionRow) domain.QuizSession {
	return domain.QuizSession{
		ID:                 row.ID,
		QuizID:             row.QuizID,
		PlayerName:         row.PlayerName,
		PlayerToken:        row.PlayerToken,
		VenueID:            row.VenueID,
		RoomNumber:         row.RoomNumber,
		Practice:           row.Practice,
		CategoryIndex:      row.CategoryIndex,
		Score:              row.Score,
		ConsecutiveCorrect: row.ConsecutiveCorrect,
		Multiplier:         row.Multiplier,
		State:              domain.SessionState(row.State),
		Version:            row.Version,
		StartedAt:          row.StartedAt,
		CompletedAt:        row.CompletedAt,
	}
}
