package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
	"study-quiz-service/internal/infra/backend"
)

type startRequest struct {
	QuizID string `json:"quizId" binding:"required"`
	UserID string `json:"userId"`
}

type answerRequest struct {
	Option *int `json:"option" binding:"required"`
}

// NewRouter mounts the REST API, the websocket endpoint and the health check.
func NewRouter(service *app.QuizService, ws *WSHandler, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", health(service, log))
	if ws != nil {
		router.GET("/ws", gin.WrapF(ws.ServeWS))
	}

	api := router.Group("/api/sessions")
	{
		api.POST("", startSession(service))
		api.GET("/:id", getSession(service))
		api.POST("/:id/answer", selectAnswer(service))
		api.POST("/:id/next", advance(service))
		api.DELETE("/:id", closeSession(service))
	}
	quizzes := router.Group("/api/quizzes")
	{
		quizzes.GET("/:id/attempts", listAttempts(service))
		quizzes.DELETE("/:id/cache", invalidateQuiz(service))
	}
	return router
}

func health(service *app.QuizService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		live, err := service.LiveSessions(c.Request.Context())
		if err != nil {
			log.Warn("count live sessions", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "liveSessions": live})
	}
}

func startSession(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userID := req.UserID
		if userID == "" {
			userID = bearerUser(c.GetHeader("Authorization"))
		}
		snap, err := service.Start(c.Request.Context(), req.QuizID, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, snap)
	}
}

func getSession(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := service.Snapshot(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func selectAnswer(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req answerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		snap, err := service.SelectAnswer(c.Request.Context(), c.Param("id"), *req.Option)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func advance(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := service.Advance(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func closeSession(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		service.Close(c.Request.Context(), c.Param("id"))
		c.Status(http.StatusNoContent)
	}
}

func listAttempts(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		attempts, err := service.Attempts(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"attempts": attempts})
	}
}

func invalidateQuiz(service *app.QuizService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.InvalidateQuiz(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuiz):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOptionOutOfRange), errors.Is(err, domain.ErrNoAnswerSelected):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotInProgress), errors.Is(err, domain.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrHistoryUnavailable):
		status = http.StatusNotImplemented
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bearerUser extracts the user claim from an Authorization header, or "".
func bearerUser(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	userID, err := backend.UserIDFromToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return ""
	}
	return userID
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
