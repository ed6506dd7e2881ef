// Package recommendation selects advisory messages for a risk level.
package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"moodwatch/internal/models"
	"moodwatch/internal/repository"
)

// Source returns the recommendations for a risk level. Unknown levels get the
// MODERATE set.
type Source interface {
	ForRiskLevel(ctx context.Context, level string) ([]models.Recommendation, error)
}

// Normalize resolves a level name, falling back to MODERATE.
func Normalize(level string) models.RiskLevel {
	if parsed, ok := models.ParseRiskLevel(level); ok {
		return parsed
	}
	return models.RiskModerate
}

// StaticSource serves a built-in list. It never fails.
type StaticSource struct {
	table map[models.RiskLevel][]models.Recommendation
}

func NewStaticSource() *StaticSource {
	return &StaticSource{table: defaultRecommendations}
}

func (s *StaticSource) ForRiskLevel(_ context.Context, level string) ([]models.Recommendation, error) {
	recs := s.table[Normalize(level)]
	return append([]models.Recommendation(nil), recs...), nil
}

// TableSource reads recommendations from the database and caches them per level.
type TableSource struct {
	repo   repository.RecommendationRepository
	cache  *cache.Cache
	logger *zap.Logger
}

func NewTableSource(repo repository.RecommendationRepository, ttl time.Duration, logger *zap.Logger) *TableSource {
	return &TableSource{
		repo:   repo,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (s *TableSource) ForRiskLevel(ctx context.Context, level string) ([]models.Recommendation, error) {
	normalized := Normalize(level)
	if cached, ok := s.cache.Get(string(normalized)); ok {
		return append([]models.Recommendation(nil), cached.([]models.Recommendation)...), nil
	}

	recs, err := s.repo.ListByRiskLevel(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations for %s: %w", normalized, err)
	}
	s.cache.SetDefault(string(normalized), recs)
	s.logger.Debug("Recommendations loaded", zap.String("risk_level", string(normalized)), zap.Int("count", len(recs)))

	return append([]models.Recommendation(nil), recs...), nil
}

var defaultRecommendations = map[models.RiskLevel][]models.Recommendation{
	models.RiskHigh: {
		{RiskLevel: models.RiskHigh, Title: "🚨 Reach out to a professional", Description: "Your recent entries show warning signs. Please contact a mental health professional soon."},
		{RiskLevel: models.RiskHigh, Title: "📞 24/7 crisis line", Description: "If you feel overwhelmed, your local crisis line is available at any hour."},
	},
	models.RiskModerate: {
		{RiskLevel: models.RiskModerate, Title: "🧘 Relaxation techniques", Description: "Deep breathing and mindfulness exercises can help reduce stress."},
		{RiskLevel: models.RiskModerate, Title: "💪 Regular physical activity", Description: "Regular exercise noticeably improves mood."},
	},
	models.RiskLow: {
		{RiskLevel: models.RiskLow, Title: "✅ Keep your healthy habits", Description: "Keep up regular exercise and balanced meals."},
		{RiskLevel: models.RiskLow, Title: "🌱 Personal growth", Description: "Consider exploring new activities you enjoy."},
	},
}
