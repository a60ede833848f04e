package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/app/service"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T, rateLimit int, opts ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		AppEnv:             config.EnvDevelopment,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RateLimitRequests:  rateLimit,
		RateLimitWindow:    15 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := logger.Discard()
	store := repository.NewMemoryStore()
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := security.NewTokenIssuer(security.TokenConfig{Secret: []byte("router-test"), TTL: 7 * 24 * time.Hour})
	authService, err := service.NewAuthService(store.Users(), hasher, tokens, log)
	require.NoError(t, err)

	return &testServer{handler: NewRouter(Deps{
		Config:          cfg,
		Log:             log,
		AuthService:     authService,
		TaskService:     service.NewTaskService(store.Tasks(), log),
		FeedbackService: service.NewFeedbackService(nil, log),
		StartedAt:       time.Now(),
	})}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (s *testServer) signup(t *testing.T, username, email string) (token, userID string) {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username, "email": email, "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func TestScenario_SignupListCreateLogin(t *testing.T) {
	s := newTestServer(t, 100)

	rec, body := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ada", "email": "ada@x.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := body["token"].(string)
	user := body["user"].(map[string]interface{})
	adaID := user["id"].(string)
	assert.Equal(t, "ada", user["username"])
	assert.Equal(t, "ada@x.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec, _ = s.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec, body = s.do(t, http.MethodPost, "/api/tasks", token, map[string]string{"title": "Write spec"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Write spec", body["title"])
	assert.Equal(t, "To Do", body["status"])
	assert.Equal(t, "Medium", body["priority"])
	assert.Equal(t, adaID, body["owner"])

	rec, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, 100)
	token, adaID := s.signup(t, "ada", "ada@x.com")

	rec, body := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@x.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["token"])

	_, unknown := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@x.com", "password": "s3cret"})
	_, wrong := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@x.com", "password": "nope"})
	assert.Equal(t, unknown, wrong)

	rec, body = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, adaID, data["id"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/auth/me", token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"username": "ada2", "email": "ada@x.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, body = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"username": "bob", "email": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["details"])

	rec, _ = s.do(t, http.MethodPost, "/api/auth/signup", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskOwnership(t *testing.T) {
	s := newTestServer(t, 100)
	adaToken, _ := s.signup(t, "ada", "ada@x.com")
	bobToken, _ := s.signup(t, "bob", "bob@x.com")

	rec, body := s.do(t, http.MethodPost, "/api/tasks", adaToken, map[string]interface{}{
		"title": "Secret plan", "priority": "High", "progress": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	taskPath := "/api/tasks/" + body["id"].(string)

	rec, _ = s.do(t, http.MethodGet, "/api/tasks", bobToken, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	getRec, _ := s.do(t, http.MethodGet, taskPath, bobToken, nil)
	putRec, _ := s.do(t, http.MethodPut, taskPath, bobToken, map[string]string{"title": "mine now"})
	delRec, _ := s.do(t, http.MethodDelete, taskPath, bobToken, nil)
	missingRec, _ := s.do(t, http.MethodGet, "/api/tasks/00000000-0000-0000-0000-000000000000", bobToken, nil)
	for _, r := range []*httptest.ResponseRecorder{getRec, putRec, delRec, missingRec} {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.JSONEq(t, missingRec.Body.String(), r.Body.String())
	}

	rec, body = s.do(t, http.MethodPut, taskPath, adaToken, map[string]string{"status": "Done"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Done", body["status"])
	assert.Equal(t, "Secret plan", body["title"])
	assert.Equal(t, "High", body["priority"])
	assert.Equal(t, float64(10), body["progress"])

	rec, _ = s.do(t, http.MethodPut, taskPath, adaToken, map[string]string{"status": "Blocked"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/tasks", adaToken, map[string]string{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodDelete, taskPath, adaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, _ = s.do(t, http.MethodGet, taskPath, adaToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndFallbacks(t *testing.T) {
	s := newTestServer(t, 100)

	rec, body := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "development", body["environment"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec, _ = s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	rec, _ = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/api/feedback", "", map[string]string{
		"name": "Ada", "email": "ada@x.com", "subject": "Hi", "message": "Nice",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRateLimitOnAPI(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodGet, "/api/tasks", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("RateLimit-Remaining"))
	}
	rec, _ := s.do(t, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health is outside /api.
	rec, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitOnAPI_SpoofedForwardedFor(t *testing.T) {
	send := func(s *testServer, socket, xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.RemoteAddr = socket
		req.Header.Set("X-Forwarded-For", xff)
		req.Header.Set("X-Real-IP", xff)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("no trusted proxy", func(t *testing.T) {
		s := newTestServer(t, 2)
		var limited int
		for i := 0; i < 10; i++ {
			if send(s, "203.0.113.7:40000", fmt.Sprintf("10.0.0.%d", i)) == http.StatusTooManyRequests {
				limited++
			}
		}
		assert.Equal(t, 8, limited)
	})

	t.Run("one trusted proxy", func(t *testing.T) {
		s := newTestServer(t, 2, func(c *config.Config) { c.TrustProxy = 1 })
		var limited int
		for i := 0; i < 10; i++ {
			// The client controls everything left of what the proxy appended.
			xff := fmt.Sprintf("10.0.0.%d, 198.51.100.4", i)
			if send(s, "172.16.0.1:8080", xff) == http.StatusTooManyRequests {
				limited++
			}
		}
		assert.Equal(t, 8, limited)

		// A different client behind the same proxy is not affected.
		assert.Equal(t, http.StatusUnauthorized, send(s, "172.16.0.1:8080", "198.51.100.5"))
	})
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
