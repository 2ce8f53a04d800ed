package http

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hotel-trivia-service/internal/app"
	"hotel-trivia-service/internal/domain"
)

// LeaderboardFeed pushes a fresh ranking to subscribed kiosks whenever a
// session for their quiz+venue completes. It implements
// app.CompletionNotifier.
type LeaderboardFeed struct {
	service  *app.GameService
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[feedKey]map[chan domain.Leaderboard]struct{}
}

type feedKey struct {
	quizID  string
	venueID string
	mode    domain.LeaderboardMode
}

func NewLeaderboardFeed(service *app.GameService) *LeaderboardFeed {
	return &LeaderboardFeed{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[feedKey]map[chan domain.Leaderboard]struct{}),
	}
}

// SessionCompleted refreshes all boards the finished session can appear on.
// Runs in the background; the submit/advance request does not wait on it.
func (f *LeaderboardFeed) SessionCompleted(session domain.QuizSession) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		keys := f.activeKeys(session)
		for _, key := range keys {
			board, err := f.service.Leaderboard(ctx, app.LeaderboardQuery{
				QuizID:  key.quizID,
				VenueID: key.venueID,
				Mode:    key.mode,
			})
			if err != nil {
				log.Printf("leaderboard feed refresh failed: %v", err)
				continue
			}
			f.broadcast(key, board)
		}
	}()
}

// activeKeys returns the subscribed boards the session belongs to: the
// general board always, the tournament board only for eligible sessions.
func (f *LeaderboardFeed) activeKeys(session domain.QuizSession) []feedKey {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []feedKey
	general := feedKey{quizID: session.QuizID, venueID: session.VenueID, mode: domain.LeaderboardGeneral}
	if len(f.subs[general]) > 0 {
		keys = append(keys, general)
	}
	if session.TournamentEligible() {
		tournament := feedKey{quizID: session.QuizID, venueID: session.VenueID, mode: domain.LeaderboardTournament}
		if len(f.subs[tournament]) > 0 {
			keys = append(keys, tournament)
		}
	}
	return keys
}

func (f *LeaderboardFeed) broadcast(key feedKey, board domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[key] {
		select {
		case ch <- board:
		default:
			// Drop the stale update so a slow kiosk cannot block the rest.
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
}

func (f *LeaderboardFeed) subscribe(key feedKey) (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	set, ok := f.subs[key]
	if !ok {
		set = make(map[chan domain.Leaderboard]struct{})
		f.subs[key] = set
	}
	set[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, key)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// ServeWS upgrades the request and streams leaderboard updates until the
// client disconnects.
func (f *LeaderboardFeed) ServeWS(c *gin.Context) {
	quizID := c.Query("quiz")
	if quizID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quiz query parameter is required"})
		return
	}
	mode := domain.LeaderboardMode(c.DefaultQuery("mode", string(domain.LeaderboardGeneral)))
	if mode != domain.LeaderboardGeneral && mode != domain.LeaderboardTournament {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "mode must be general or tournament"})
		return
	}
	key := feedKey{quizID: quizID, venueID: c.Query("venue"), mode: mode}

	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := f.subscribe(key)
	defer cancel()

	initial, err := f.service.Leaderboard(c.Request.Context(), app.LeaderboardQuery{
		QuizID:  key.quizID,
		VenueID: key.venueID,
		Mode:    key.mode,
	})
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for board := range updates {
			if err := conn.WriteJSON(board); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Read pump: the feed is one-way, reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
}
