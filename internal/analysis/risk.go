package analysis

import "moodwatch/internal/models"

// Classify maps an average composite score and trend flag to a risk level.
// Bands overlap; the first matching rule wins.
func Classify(score float64, trendNegative bool) models.RiskLevel {
	switch {
	case score < 40 || (score < 60 && trendNegative):
		return models.RiskHigh
	case score < 70 || (score < 80 && trendNegative):
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}
