package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"moodwatch/internal/config"
	"moodwatch/internal/metrics"
	"moodwatch/internal/models"
	"moodwatch/internal/recommendation"
	"moodwatch/internal/repository"
	"moodwatch/internal/service"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Server.ShutdownTimeoutSeconds = 1
	if mutate != nil {
		mutate(cfg)
	}

	logger := zap.NewNop()
	log, _ := logtest.NewNullLogger()
	collector := metrics.NewCollector()
	repo := repository.NewMemoryEntryRepository(models.Entry{
		ID: 1, UserHandle: "ana", Mood: 2, Created: time.Now().Add(-time.Hour),
	})
	entries := service.NewEntryService(repo, nil, logger)
	insights := service.NewInsightsService(entries, recommendation.NewStaticSource(), collector, service.InsightsConfig{}, logger)

	return NewServer(cfg, Deps{Entries: entries, Insights: insights, Metrics: collector}, log, logger)
}

func get(s *Server, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	for _, target := range []string{
		"/api/entries",
		"/api/insights/summary",
		"/api/insights/averages",
		"/api/insights/alerts",
		"/api/insights/correlations",
		"/api/insights/recommendations?risk_level=HIGH",
		"/api/insights/users/ana/risk",
	} {
		assert.Equal(t, http.StatusOK, get(s, target, nil).Code, target)
	}

	w = get(s, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `moodwatch_http_requests_total{method="GET",route="/api/insights/alerts",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "moodwatch_alerts_emitted_total 1")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthEnabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Auth.Enabled = true
		c.Auth.JWTSecret = "secret"
	})

	assert.Equal(t, http.StatusOK, get(s, "/ping", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(s, "/api/insights/alerts", nil).Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.Claims{
		Handle: "dr-lee",
		Role:   "clinician",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	w := get(s, "/api/insights/alerts", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
