package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/infra/memory"
)

func TestRESTSessionLifecycle(t *testing.T) {
	router, attempts := newTestRouter(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "token-user"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := doJSON(router, http.MethodPost, "/api/sessions", `{"quizId":"quiz-1"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status %d body %s", rec.Code, rec.Body)
	}
	snap := decode(t, rec)
	id, _ := snap["id"].(string)
	if id == "" || snap["status"] != "in_progress" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	rec = doJSON(router, http.MethodGet, "/api/sessions/"+id, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	for _, option := range []string{"1", "1"} {
		rec = doJSON(router, http.MethodPost, "/api/sessions/"+id+"/answer", `{"option":`+option+`}`, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("answer: status %d body %s", rec.Code, rec.Body)
		}
		rec = doJSON(router, http.MethodPost, "/api/sessions/"+id+"/next", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("next: status %d body %s", rec.Code, rec.Body)
		}
	}

	snap = decode(t, rec)
	result, _ := snap["result"].(map[string]any)
	if snap["status"] != "completed" || result["score"] != float64(2) {
		t.Fatalf("unexpected final snapshot %+v", snap)
	}
	saved := attempts.Attempts("quiz-1")
	if len(saved) != 1 || saved[0].UserID != "token-user" {
		t.Fatalf("unexpected attempts %+v", saved)
	}

	rec = doJSON(router, http.MethodPost, "/api/sessions/"+id+"/next", "", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected conflict after completion, got %d", rec.Code)
	}
}

func TestRESTErrorMapping(t *testing.T) {
	router, _ := newTestRouter(t)

	if rec := doJSON(router, http.MethodPost, "/api/sessions", `{}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing quizId: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodPost, "/api/sessions", `{"quizId":"missing"}`, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown quiz: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/api/sessions/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: expected 404, got %d", rec.Code)
	}

	rec := doJSON(router, http.MethodPost, "/api/sessions", `{"quizId":"quiz-1","userId":"u1"}`, "")
	id, _ := decode(t, rec)["id"].(string)

	if rec := doJSON(router, http.MethodPost, "/api/sessions/"+id+"/next", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("advance without answer: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodPost, "/api/sessions/"+id+"/answer", `{"option":12}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("option out of range: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodPost, "/api/sessions/"+id+"/answer", `{}`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing option: expected 400, got %d", rec.Code)
	}

	if rec := doJSON(router, http.MethodDelete, "/api/sessions/"+id, "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodGet, "/api/sessions/"+id, "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("closed session: expected 404, got %d", rec.Code)
	}
}

func TestHealthzReportsLiveSessions(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(router, http.MethodGet, "/healthz", "", "")
	body := decode(t, rec)
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["liveSessions"] != float64(0) {
		t.Fatalf("unexpected health response %d %+v", rec.Code, body)
	}

	doJSON(router, http.MethodPost, "/api/sessions", `{"quizId":"quiz-1","userId":"u1"}`, "")
	body = decode(t, doJSON(router, http.MethodGet, "/healthz", "", ""))
	if body["liveSessions"] != float64(1) {
		t.Fatalf("expected one live session, got %+v", body)
	}
}

func TestRESTAttemptHistory(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, userID := range []string{"u1", "u2"} {
		rec := doJSON(router, http.MethodPost, "/api/sessions", `{"quizId":"quiz-1","userId":"`+userID+`"}`, "")
		id, _ := decode(t, rec)["id"].(string)
		for i := 0; i < 2; i++ {
			doJSON(router, http.MethodPost, "/api/sessions/"+id+"/answer", `{"option":1}`, "")
			doJSON(router, http.MethodPost, "/api/sessions/"+id+"/next", "", "")
		}
	}

	rec := doJSON(router, http.MethodGet, "/api/quizzes/quiz-1/attempts?limit=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("attempts: status %d body %s", rec.Code, rec.Body)
	}
	list, _ := decode(t, rec)["attempts"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected one attempt, got %+v", list)
	}
	latest, _ := list[0].(map[string]any)
	if latest["userId"] != "u2" || latest["score"] != float64(2) {
		t.Fatalf("expected newest attempt first, got %+v", latest)
	}
	answers, _ := latest["answers"].(map[string]any)
	if len(answers) != 2 {
		t.Fatalf("expected answers in the attempt, got %+v", latest["answers"])
	}

	if rec := doJSON(router, http.MethodGet, "/api/quizzes/quiz-1/attempts?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(router, http.MethodDelete, "/api/quizzes/quiz-1/cache", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("invalidate: expected 204, got %d", rec.Code)
	}
}

func TestBearerUser(t *testing.T) {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc"}).SignedString([]byte("k"))
	if got := bearerUser("Bearer " + token); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := bearerUser("Basic dXNlcg=="); got != "" {
		t.Fatalf("expected empty user for basic auth, got %q", got)
	}
	if got := bearerUser(""); got != "" {
		t.Fatalf("expected empty user, got %q", got)
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *memory.AttemptLog) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	attempts := memory.NewAttemptLog()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), quizRepo, attempts)
	return NewRouter(service, nil, nil), attempts
}

func doJSON(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return out
}
