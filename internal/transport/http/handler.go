package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotel-trivia-service/internal/app"
	"hotel-trivia-service/internal/domain"
)

// Handler exposes the trivia use cases over REST.
type Handler struct {
	service *app.GameService
}

func NewHandler(service *app.GameService) *Handler {
	return &Handler{service: service}
}

// NewRouter wires all routes. The feed may be nil when the live leaderboard
// is disabled.
func NewRouter(service *app.GameService, feed *LeaderboardFeed) *gin.Engine {
	h := NewHandler(service)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	{
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions/:id", h.Snapshot)
		api.GET("/sessions/:id/questions", h.FetchCategoryQuestions)
		api.POST("/sessions/:id/answers", h.SubmitAnswer)
		api.POST("/sessions/:id/advance", h.Advance)
		api.POST("/sessions/:id/complete", h.Complete)
		api.GET("/leaderboard", h.Leaderboard)
	}

	if feed != nil {
		r.GET("/ws/leaderboard", feed.ServeWS)
	}
	return r
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type StartSessionRequest struct {
	QuizID      string `json:"quiz_id" binding:"required"`
	PlayerName  string `json:"player_name" binding:"required,min=1,max=100"`
	PlayerToken string `json:"player_token" binding:"required"`
	VenueID     string `json:"venue_id"`
	RoomNumber  string `json:"room_number"`
	Practice    bool   `json:"practice"`
}

func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	bundle, err := h.service.StartSession(c.Request.Context(), app.StartSessionInput{
		QuizID:      req.QuizID,
		PlayerName:  req.PlayerName,
		PlayerToken: req.PlayerToken,
		VenueID:     req.VenueID,
		RoomNumber:  req.RoomNumber,
		Practice:    req.Practice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bundle)
}

func (h *Handler) Snapshot(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) FetchCategoryQuestions(c *gin.Context) {
	categoryID := c.Query("category")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "category query parameter is required"})
		return
	}
	questions, err := h.service.FetchCategoryQuestions(c.Request.Context(), c.Param("id"), categoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

type SubmitAnswerRequest struct {
	CategoryID     string          `json:"category_id" binding:"required"`
	QuestionID     string          `json:"question_id"`
	Math           *domain.MathRef `json:"math"`
	SelectedAnswer string          `json:"selected_answer" binding:"required"`
	ElapsedSeconds int             `json:"elapsed_seconds" binding:"gte=0"`
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.SubmitAnswer(c.Request.Context(), app.SubmitInput{
		SessionID:      c.Param("id"),
		CategoryID:     req.CategoryID,
		Ref:            domain.QuestionRef{QuestionID: req.QuestionID, Math: req.Math},
		SelectedAnswer: req.SelectedAnswer,
		ElapsedSeconds: req.ElapsedSeconds,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type AdvanceRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
}

func (h *Handler) Advance(c *gin.Context) {
	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.Advance(c.Request.Context(), c.Param("id"), req.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Complete(c *gin.Context) {
	totals, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	board, err := h.service.Leaderboard(c.Request.Context(), app.LeaderboardQuery{
		QuizID:  c.Query("quiz"),
		VenueID: c.Query("venue"),
		Mode:    domain.LeaderboardMode(c.Query("mode")),
		Period:  domain.LeaderboardPeriod(c.Query("period")),
		Limit:   limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// respondError maps the domain error taxonomy onto HTTP statuses so clients
// can render specific feedback instead of a generic failure.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrCategoryMismatch):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrMalformedSubmission):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientContent):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
