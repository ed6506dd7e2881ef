package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"moodwatch/internal/models"
)

type RecommendationRepository interface {
	ListByRiskLevel(ctx context.Context, level models.RiskLevel) ([]models.Recommendation, error)
}

type recommendationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRecommendationRepository(db *sqlx.DB, logger *zap.Logger) RecommendationRepository {
	return &recommendationRepository{db: db, logger: logger}
}

func (r *recommendationRepository) ListByRiskLevel(ctx context.Context, level models.RiskLevel) ([]models.Recommendation, error) {
	recs := make([]models.Recommendation, 0)
	query := `SELECT id, risk_level, title, description, url FROM recommendations WHERE risk_level = ? ORDER BY id`
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(query), string(level)); err != nil {
		return nil, err
	}
	return recs, nil
}
