package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"study-quiz-service/internal/domain"
)

const defaultTimeout = 10 * time.Second

// ErrRejected is returned when the API answers with success=false.
var ErrRejected = errors.New("backend rejected request")

// Client talks to the study assistant REST API: it loads quizzes and
// stores finished attempts.
type Client struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a client for baseURL. token is sent as a bearer token;
// when it is a JWT its user claim fills attempts that carry no user.
func NewClient(baseURL, token string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		log:     log,
	}
	if token != "" {
		userID, err := UserIDFromToken(token)
		if err != nil {
			log.Debug("token carries no user id", zap.Error(err))
		}
		c.userID = userID
	}
	return c
}

// UserID is the user the configured token belongs to, if known.
func (c *Client) UserID() string {
	return c.userID
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type quizPayload struct {
	ID           string            `json:"_id"`
	Title        string            `json:"title"`
	Duration     flexInt           `json:"duration"`
	PassingMarks flexInt           `json:"passingMarks"`
	Subject      json.RawMessage   `json:"subject"`
	Questions    []questionPayload `json:"questions"`
}

type questionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer flexInt  `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type attemptPayload struct {
	QuizID    string         `json:"quizId"`
	UserID    string         `json:"userId,omitempty"`
	Answers   domain.Answers `json:"answers"`
	Score     int            `json:"score"`
	Passed    bool           `json:"passed"`
	TimeTaken int            `json:"timeTaken"`
}

// LoadQuiz fetches GET /quizzes/{id}.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var payload quizPayload
	status, err := c.do(ctx, http.MethodGet, "/quizzes/"+url.PathEscape(quizID), nil, &payload)
	if status == http.StatusNotFound {
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	if payload.ID == "" && payload.Questions == nil {
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, domain.ErrQuizNotFound)
	}
	return payload.toDomain(quizID), nil
}

// ListQuizzes fetches GET /quizzes, filtered by subject when subjectID is set.
func (c *Client) ListQuizzes(ctx context.Context, subjectID string) ([]domain.Quiz, error) {
	path := "/quizzes"
	if subjectID != "" {
		path += "?" + url.Values{"subject": {subjectID}}.Encode()
	}
	var payloads []quizPayload
	if _, err := c.do(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(payloads))
	for _, p := range payloads {
		quizzes = append(quizzes, p.toDomain(p.ID))
	}
	return quizzes, nil
}

// SaveAttempt posts the attempt to /quizzes/quiz-attempts.
func (c *Client) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	body := attemptPayload{
		QuizID:    attempt.QuizID,
		UserID:    attempt.UserID,
		Answers:   attempt.Answers,
		Score:     attempt.Score,
		Passed:    attempt.Passed,
		TimeTaken: attempt.TimeTaken,
	}
	if body.UserID == "" {
		body.UserID = c.userID
	}
	if _, err := c.do(ctx, http.MethodPost, "/quizzes/quiz-attempts", body, nil); err != nil {
		return fmt.Errorf("save attempt for quiz %s: %w", attempt.QuizID, err)
	}
	c.log.Debug("attempt saved", zap.String("quiz_id", attempt.QuizID), zap.Int("score", attempt.Score))
	return nil
}

type resultPayload struct {
	User               json.RawMessage `json:"user"`
	UserID             string          `json:"userId"`
	Answers            domain.Answers  `json:"answers"`
	Score              int             `json:"score"`
	Total              int             `json:"total"`
	Passed             bool            `json:"passed"`
	TimeTaken          flexInt         `json:"timeTaken"`
	CompletedByTimeout bool            `json:"completedByTimeout"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ListAttempts fetches GET /quizzes/{id}/results, newest first, at most limit when limit > 0.
func (c *Client) ListAttempts(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	var payloads []resultPayload
	status, err := c.do(ctx, http.MethodGet, "/quizzes/"+url.PathEscape(quizID)+"/results", nil, &payloads)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("list attempts of %s: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("list attempts of %s: %w", quizID, err)
	}

	sort.SliceStable(payloads, func(i, j int) bool { return payloads[i].CreatedAt.After(payloads[j].CreatedAt) })
	if limit > 0 && len(payloads) > limit {
		payloads = payloads[:limit]
	}
	attempts := make([]domain.Attempt, 0, len(payloads))
	for _, p := range payloads {
		userID := p.UserID
		if userID == "" {
			userID = refID(p.User)
		}
		attempts = append(attempts, domain.Attempt{
			QuizID:             quizID,
			UserID:             userID,
			Answers:            p.Answers,
			Score:              p.Score,
			Passed:             p.Passed,
			TimeTaken:          int(p.TimeTaken),
			Total:              p.Total,
			Attempted:          p.Answers.Len(),
			CompletedByTimeout: p.CompletedByTimeout,
			CompletedAt:        p.CreatedAt,
		})
	}
	return attempts, nil
}

// do sends a JSON request and decodes the envelope's data into out.
// A success=false envelope is reported as ErrRejected with its message.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var env envelope
	var decodeErr error
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		decodeErr = fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if env.Message != "" {
			return resp.StatusCode, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, env.Message)
		}
		return resp.StatusCode, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return resp.StatusCode, decodeErr
	}
	if env.Success != nil && !*env.Success {
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (p quizPayload) toDomain(fallbackID string) domain.Quiz {
	quiz := domain.Quiz{
		ID:              p.ID,
		Title:           p.Title,
		SubjectID:       refID(p.Subject),
		DurationMinutes: int(p.Duration),
		PassingScore:    int(p.PassingMarks),
		Questions:       make([]domain.Question, 0, len(p.Questions)),
	}
	if quiz.ID == "" {
		quiz.ID = fallbackID
	}
	for _, q := range p.Questions {
		quiz.Questions = append(quiz.Questions, domain.Question{
			Text:          q.Question,
			Options:       q.Options,
			CorrectOption: int(q.CorrectAnswer),
			Explanation:   q.Explanation,
		})
	}
	return quiz
}

// refID accepts either a bare ID or a populated document such as a
// subject or user.
func refID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc.ID
	}
	return ""
}
