package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"moodwatch/internal/crypto"
	"moodwatch/internal/models"
	"moodwatch/internal/recommendation"
	"moodwatch/internal/repository"
	"moodwatch/internal/service"
)

type brokenStore struct{}

func (brokenStore) ListEntries(context.Context, models.EntryFilter) ([]models.Entry, error) {
	return nil, errors.New("db down")
}

func (brokenStore) CreateEntry(context.Context, *models.Entry) error {
	return errors.New("db down")
}

func daysAgo(id int64, handle string, mood int, days int) models.Entry {
	return models.Entry{
		ID:         id,
		UserHandle: handle,
		Mood:       mood,
		Created:    time.Now().UTC().Add(-time.Duration(days)*24*time.Hour - time.Hour),
	}
}

func newRouter(repo repository.EntryRepository) *gin.Engine {
	return newSealedRouter(repo, nil)
}

func newSealedRouter(repo repository.EntryRepository, sealer service.CommentSealer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	entries := service.NewEntryService(repo, sealer, logger)
	insights := service.NewInsightsService(entries, recommendation.NewStaticSource(), nil, service.InsightsConfig{}, logger)
	ih := NewInsightsHandler(insights, logger)
	eh := NewEntryHandler(entries, logger)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/entries", eh.ListEntries)
	api.POST("/entries", eh.CreateEntry)
	api.GET("/insights/summary", ih.GetSummary)
	api.GET("/insights/averages", ih.GetAverages)
	api.GET("/insights/alerts", ih.GetAlerts)
	api.GET("/insights/correlations", ih.GetCorrelations)
	api.GET("/insights/recommendations", ih.GetRecommendations)
	api.GET("/insights/users/:handle/risk", ih.GetUserRisk)
	return r
}

func seeded() *repository.MemoryEntryRepository {
	return repository.NewMemoryEntryRepository(
		daysAgo(1, "ana", 2, 3),
		daysAgo(2, "ben", 9, 3),
		daysAgo(3, "ana", 2, 2),
		daysAgo(4, "ben", 8, 2),
		daysAgo(5, "ana", 1, 1),
		daysAgo(6, "cam", 5, 45),
	)
}

func do(r *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetAlerts(t *testing.T) {
	r := newRouter(seeded())

	w := do(r, http.MethodGet, "/api/insights/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var feed models.AlertFeed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, 3, feed.Count)
	for _, a := range feed.Items {
		assert.Equal(t, "ana", a.UserHandle)
		assert.Equal(t, models.RiskHigh, a.RiskLevel)
	}

	w = do(r, http.MethodGet, "/api/insights/alerts?days=60&threshold=5", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, 4, feed.Count)
}

func TestGetAlerts_BadParams(t *testing.T) {
	r := newRouter(seeded())

	for _, target := range []string{
		"/api/insights/alerts?threshold=abc",
		"/api/insights/alerts?threshold=11",
		"/api/insights/alerts?days=0",
	} {
		w := do(r, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestGetAlerts_StoreDown(t *testing.T) {
	w := do(newRouter(brokenStore{}), http.MethodGet, "/api/insights/alerts", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"items":[]}`, w.Body.String())
}

func TestGetCorrelations(t *testing.T) {
	w := do(newRouter(repository.NewMemoryEntryRepository()), http.MethodGet, "/api/insights/correlations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"No data available"}`, w.Body.String())

	w = do(newRouter(seeded()), http.MethodGet, "/api/insights/correlations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"Insufficient data for correlations"}`, w.Body.String())

	withSleep := repository.NewMemoryEntryRepository()
	for i, mood := range []int{3, 5, 7} {
		e := daysAgo(int64(i+1), "ana", mood, 3-i)
		sleep := float64(mood)
		e.SleepHours = &sleep
		require.NoError(t, withSleep.CreateEntry(context.Background(), &e))
	}
	w = do(newRouter(withSleep), http.MethodGet, "/api/insights/correlations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.CorrelationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 3, report.SampleSize)
	assert.InDelta(t, 1.0, report.Correlations["mood_vs_sleep_hours"], 1e-9)
}

func TestGetSummaryAndAverages(t *testing.T) {
	r := newRouter(seeded())

	w := do(r, http.MethodGet, "/api/insights/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 6, summary.Count)
	require.NotNil(t, summary.MoodStats["min"])
	assert.Equal(t, 1.0, *summary.MoodStats["min"])

	w = do(r, http.MethodGet, "/api/insights/averages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var averages []models.UserAverage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &averages))
	require.Len(t, averages, 3)
	assert.Equal(t, "ben", averages[0].UserHandle)
	assert.Equal(t, 8.5, averages[0].AverageMood)

	down := newRouter(brokenStore{})
	w = do(down, http.MethodGet, "/api/insights/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, w.Body.String())

	w = do(down, http.MethodGet, "/api/insights/averages", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetRecommendations(t *testing.T) {
	r := newRouter(seeded())

	w := do(r, http.MethodGet, "/api/insights/recommendations?risk_level=bajo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		RiskLevel       string                  `json:"risk_level"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "LOW", body.RiskLevel)
	assert.Len(t, body.Recommendations, 2)

	w = do(r, http.MethodGet, "/api/insights/recommendations?risk_level=whatever", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "MODERATE", body.RiskLevel)
}

func TestGetUserRisk(t *testing.T) {
	r := newRouter(seeded())

	w := do(r, http.MethodGet, "/api/insights/users/ana/risk", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Assessment      models.UserRiskAssessment `json:"assessment"`
		Recommendations []models.Recommendation   `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.RiskHigh, body.Assessment.RiskLevel)
	assert.Equal(t, 3, body.Assessment.EntryCount)
	assert.Len(t, body.Recommendations, 2)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/insights/users/cam/risk", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/insights/users/cam/risk?days=60", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/insights/users/cam/risk?days=x", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(newRouter(brokenStore{}), http.MethodGet, "/api/insights/users/ana/risk", nil).Code)
}

func TestEntries(t *testing.T) {
	repo := seeded()
	r := newRouter(repo)

	w := do(r, http.MethodPost, "/api/entries", []byte(`{"user_handle":"dee","mood":6,"sleep_hours":7.5,"comment":"ok day"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "ok day", created.CommentText())

	w = do(r, http.MethodGet, "/api/entries?handle=dee", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, 6, listed[0].Mood)

	w = do(r, http.MethodGet, "/api/entries?days=30", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 6)
}

func TestEntries_EncryptedComments(t *testing.T) {
	master, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	km, err := crypto.NewKeyManager(master)
	require.NoError(t, err)

	repo := repository.NewMemoryEntryRepository()
	r := newSealedRouter(repo, km)

	w := do(r, http.MethodPost, "/api/entries", []byte(`{"user_handle":"dee","mood":2,"comment":"hard day"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "hard day", created.CommentText())

	stored, err := repo.ListEntries(context.Background(), models.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, crypto.IsSealed(stored[0].CommentText()))

	w = do(r, http.MethodGet, "/api/insights/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed models.AlertFeed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Equal(t, 1, feed.Count)
	assert.Equal(t, "hard day", feed.Items[0].Comment)
}

func TestCreateEntry_Rejections(t *testing.T) {
	r := newRouter(seeded())

	for _, body := range []string{
		`{"user_handle":"dee","mood":0}`,
		`{"user_handle":"dee","mood":12}`,
		`{"mood":5}`,
		`{"user_handle":"dee","mood":5,"appetite":11}`,
		`not json`,
	} {
		w := do(r, http.MethodPost, "/api/entries", []byte(body))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	csv := repository.NewCSVEntryRepository(t.TempDir()+"/entries.csv", zap.NewNop())
	w := do(newRouter(csv), http.MethodPost, "/api/entries", []byte(`{"user_handle":"dee","mood":5}`))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
