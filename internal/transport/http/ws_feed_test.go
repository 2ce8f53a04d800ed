package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hotel-trivia-service/internal/domain"
)

func TestLeaderboardFeedPushesOnCompletion(t *testing.T) {
	router, service := testRouter(t)
	feed := NewLeaderboardFeed(service)
	service.SetCompletionNotifier(feed)
	router.GET("/ws/leaderboard", feed.ServeWS)

	server := httptest.NewServer(router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/leaderboard?quiz=quiz-1&venue=venue-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives before any session completes.
	board := readBoard(conn, t)
	if board.QuizID != "quiz-1" || len(board.Entries) != 0 {
		t.Fatalf("unexpected initial board: %+v", board)
	}

	// Abandon a session through the HTTP surface; completion must push a
	// refreshed board to the subscriber.
	bundle := startTestSession(t, router)
	w := doJSON(t, router, http.MethodPost, "/api/sessions/"+bundle.Session.ID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}

	board = readBoard(conn, t)
	if len(board.Entries) != 1 || board.Entries[0].PlayerName != "Ada" {
		t.Fatalf("unexpected pushed board: %+v", board)
	}
	if board.Mode != domain.LeaderboardGeneral {
		t.Fatalf("expected general board, got %s", board.Mode)
	}
}

func TestLeaderboardFeedRejectsBadRequests(t *testing.T) {
	router, service := testRouter(t)
	feed := NewLeaderboardFeed(service)
	router.GET("/ws/leaderboard", feed.ServeWS)

	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws/leaderboard")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without quiz, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/ws/leaderboard?quiz=quiz-1&mode=vip")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", resp.StatusCode)
	}
}

func readBoard(conn *websocket.Conn, t *testing.T) domain.Leaderboard {
	t.Helper()
	var board domain.Leaderboard
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&board); err != nil {
		t.Fatalf("read board: %v", err)
	}
	return board
}
