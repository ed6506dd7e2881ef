package models

import (
	"strings"
	"time"
)

// RiskLevel is the discrete classification driving alerting and recommendations.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

// legacyRiskLevels maps the level names found in older journal exports.
var legacyRiskLevels = map[string]RiskLevel{
	"ALTO":     RiskHigh,
	"MODERADO": RiskModerate,
	"BAJO":     RiskLow,
}

// ParseRiskLevel resolves a level name case-insensitively. The second return value is
// false when the name is not a known level.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch RiskLevel(name) {
	case RiskHigh, RiskModerate, RiskLow:
		return RiskLevel(name), true
	}
	if level, ok := legacyRiskLevels[name]; ok {
		return level, true
	}
	return "", false
}

// Emoji is the marker used in notifications.
func (l RiskLevel) Emoji() string {
	switch l {
	case RiskHigh:
		return "🚨"
	case RiskModerate:
		return "⚠️"
	case RiskLow:
		return "✅"
	}
	return "❓"
}

// UserRiskAssessment is the per-user outcome of one pipeline run.
type UserRiskAssessment struct {
	UserHandle            string    `json:"user_handle"`
	AverageCompositeScore float64   `json:"average_composite_score"`
	TrendNegative         bool      `json:"trend_negative"`
	RiskLevel             RiskLevel `json:"risk_level"`
	EntryCount            int       `json:"entry_count"`
}

// Alert is a snapshot of one qualifying entry together with its user's assessment.
type Alert struct {
	ID                    int64     `json:"id"`
	UserHandle            string    `json:"user_handle"`
	Mood                  int       `json:"mood"`
	CompositeScore        float64   `json:"composite_score"`
	Created               time.Time `json:"created"`
	Comment               string    `json:"comment"`
	RiskLevel             RiskLevel `json:"risk_level"`
	AverageCompositeScore float64   `json:"average_composite_score"`
	TrendNegative         bool      `json:"trend_negative"`
}

// AlertFeed is the alert list returned to callers.
type AlertFeed struct {
	Count int     `json:"count"`
	Items []Alert `json:"items"`
}
