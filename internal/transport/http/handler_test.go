package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"hotel-trivia-service/internal/app"
	"hotel-trivia-service/internal/domain"
	"hotel-trivia-service/internal/infra/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) (*gin.Engine, *app.GameService) {
	t.Helper()

	quiz := domain.Quiz{
		ID:                   "quiz-1",
		Title:                "Lobby Trivia",
		QuestionsPerCategory: 2,
		TimeBudgetSeconds:    5,
		TurboThreshold:       3,
		TurboMultiplier:      2,
		Categories: []domain.Category{
			{ID: "cat-geo", QuizID: "quiz-1", Title: "Geography", Position: 0},
			{ID: "cat-math", QuizID: "quiz-1", Title: "Quick Math", Position: 1, Dynamic: true},
		},
	}

	questions := make([]domain.Question, 0, 3)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("q-%d", i)
		questions = append(questions, domain.Question{
			ID:         id,
			CategoryID: "cat-geo",
			Text:       fmt.Sprintf("Question %d?", i),
			Active:     true,
			Options: []domain.AnswerOption{
				{ID: id + "-a", QuestionID: id, Text: "right", Correct: true},
				{ID: id + "-b", QuestionID: id, Text: "wrong"},
			},
		})
	}

	catalog := memory.NewStaticCatalog(
		map[string]domain.Quiz{quiz.ID: quiz},
		map[string][]domain.Question{"cat-geo": questions},
	)
	sessions := memory.NewSessionStore()
	service := app.NewGameService(
		catalog,
		sessions,
		memory.NewSubmissionStore(),
		app.NewDispatcher(catalog, memory.NewProgressStore()),
		sessions,
	)
	return NewRouter(service, nil), service
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func startTestSession(t *testing.T, router *gin.Engine) app.SessionBundle {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/sessions", gin.H{
		"quiz_id":      "quiz-1",
		"player_name":  "Ada",
		"player_token": "token-ada",
		"venue_id":     "venue-1",
		"room_number":  "101",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start session: %d %s", w.Code, w.Body.String())
	}
	var bundle app.SessionBundle
	decode(t, w, &bundle)
	return bundle
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
}

func TestStartSessionEndpoint(t *testing.T) {
	router, _ := testRouter(t)
	bundle := startTestSession(t, router)

	if bundle.Session.ID == "" || bundle.Session.State != domain.SessionCreated {
		t.Fatalf("unexpected session: %+v", bundle.Session)
	}
	if bundle.Category.ID != "cat-geo" || len(bundle.Questions) != 2 {
		t.Fatalf("unexpected first batch: %+v", bundle)
	}
}

func TestStartSessionEndpointValidation(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", gin.H{"quiz_id": "quiz-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/sessions", gin.H{
		"quiz_id": "missing", "player_name": "Ada", "player_token": "tok",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", w.Code)
	}
}

func TestSubmitAnswerEndpoint(t *testing.T) {
	router, _ := testRouter(t)
	bundle := startTestSession(t, router)
	path := "/api/sessions/" + bundle.Session.ID + "/answers"

	w := doJSON(t, router, http.MethodPost, path, gin.H{
		"category_id":     "cat-geo",
		"question_id":     bundle.Questions[0].QuestionID,
		"selected_answer": "right",
		"elapsed_seconds": 1,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	var result domain.SubmissionResult
	decode(t, w, &result)
	if !result.Correct || result.PointsAwarded != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Submitting against the wrong category is a conflict.
	w = doJSON(t, router, http.MethodPost, path, gin.H{
		"category_id":     "cat-math",
		"math":            gin.H{"operand1": 2, "operand2": 2, "operator": "add", "answer": 4},
		"selected_answer": "4",
		"elapsed_seconds": 1,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for category mismatch, got %d %s", w.Code, w.Body.String())
	}

	// Unknown session is 404.
	w = doJSON(t, router, http.MethodPost, "/api/sessions/nope/answers", gin.H{
		"category_id":     "cat-geo",
		"question_id":     "q-0",
		"selected_answer": "right",
		"elapsed_seconds": 1,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestGameOverHTTP(t *testing.T) {
	router, _ := testRouter(t)
	bundle := startTestSession(t, router)
	id := bundle.Session.ID

	for _, q := range bundle.Questions {
		w := doJSON(t, router, http.MethodPost, "/api/sessions/"+id+"/answers", gin.H{
			"category_id":     "cat-geo",
			"question_id":     q.QuestionID,
			"selected_answer": "right",
			"elapsed_seconds": 1,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("submit: %d %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, router, http.MethodPost, "/api/sessions/"+id+"/advance", gin.H{"category_id": "cat-geo"})
	if w.Code != http.StatusOK {
		t.Fatalf("advance: %d %s", w.Code, w.Body.String())
	}
	var adv domain.AdvanceResult
	decode(t, w, &adv)
	if !adv.HasNext || adv.NextCategory.ID != "cat-math" {
		t.Fatalf("unexpected advance: %+v", adv)
	}

	w = doJSON(t, router, http.MethodGet, "/api/sessions/"+id+"/questions?category=cat-math", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch math: %d %s", w.Code, w.Body.String())
	}
	var batch struct {
		Questions []domain.QuestionPayload `json:"questions"`
	}
	decode(t, w, &batch)
	if len(batch.Questions) != 2 {
		t.Fatalf("expected 2 math questions, got %d", len(batch.Questions))
	}

	var last domain.SubmissionResult
	for _, q := range batch.Questions {
		w = doJSON(t, router, http.MethodPost, "/api/sessions/"+id+"/answers", gin.H{
			"category_id":     "cat-math",
			"math":            q.Math,
			"selected_answer": strconv.Itoa(q.Math.Answer),
			"elapsed_seconds": 2,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("submit math: %d %s", w.Code, w.Body.String())
		}
		decode(t, w, &last)
	}
	if !last.GameCompleted {
		t.Fatalf("expected completion, got %+v", last)
	}

	// The session shows up on the leaderboard once completed.
	w = doJSON(t, router, http.MethodGet, "/api/leaderboard?quiz=quiz-1&venue=venue-1&mode=tournament", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d %s", w.Code, w.Body.String())
	}
	var board domain.Leaderboard
	decode(t, w, &board)
	if len(board.Entries) != 1 || board.Entries[0].PlayerName != "Ada" {
		t.Fatalf("unexpected board: %+v", board)
	}

	// Further answers are rejected.
	w = doJSON(t, router, http.MethodPost, "/api/sessions/"+id+"/answers", gin.H{
		"category_id":     "cat-geo",
		"question_id":     "q-0",
		"selected_answer": "right",
		"elapsed_seconds": 1,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after completion, got %d", w.Code)
	}
}

func TestCompleteEndpointIdempotent(t *testing.T) {
	router, _ := testRouter(t)
	bundle := startTestSession(t, router)
	path := "/api/sessions/" + bundle.Session.ID + "/complete"

	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodPost, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("complete call %d: %d %s", i+1, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/sessions/"+bundle.Session.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot: %d", w.Code)
	}
	var snap app.SessionSnapshot
	decode(t, w, &snap)
	if snap.Session.State != domain.SessionCompleted {
		t.Fatalf("expected completed session, got %s", snap.Session.State)
	}
}

func TestFetchQuestionsRequiresCategory(t *testing.T) {
	router, _ := testRouter(t)
	bundle := startTestSession(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/sessions/"+bundle.Session.ID+"/questions", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without category, got %d", w.Code)
	}
}

func TestLeaderboardEndpointValidation(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/leaderboard?quiz=quiz-1&limit=zero", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/leaderboard?quiz=quiz-1&mode=vip", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", w.Code)
	}
}
