// Package notifier delivers high risk alerts to the people watching the journal.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"moodwatch/internal/models"
)

// maxListedAlerts caps how many entries are quoted in one message.
const maxListedAlerts = 5

// commentPreviewLen is measured in runes.
const commentPreviewLen = 150

// Notifier is told about every user who reaches HIGH risk.
type Notifier interface {
	NotifyHighRisk(ctx context.Context, assessment models.UserRiskAssessment, alerts []models.Alert) error
}

// LogNotifier writes notifications to the application log. Used when Telegram is off.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyHighRisk(_ context.Context, assessment models.UserRiskAssessment, alerts []models.Alert) error {
	n.logger.Warn("High risk user",
		zap.String("user_handle", assessment.UserHandle),
		zap.Float64("average_composite_score", assessment.AverageCompositeScore),
		zap.Bool("trend_negative", assessment.TrendNegative),
		zap.Int("entry_count", assessment.EntryCount),
		zap.Int("alerts", len(alerts)),
	)
	return nil
}

// FormatHighRisk renders the notification text for one user.
func FormatHighRisk(assessment models.UserRiskAssessment, alerts []models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s risk: %s\n\n", assessment.RiskLevel.Emoji(), assessment.RiskLevel, assessment.UserHandle)
	fmt.Fprintf(&b, "Average wellbeing score: %.2f over %d entries\n", assessment.AverageCompositeScore, assessment.EntryCount)
	if assessment.TrendNegative {
		b.WriteString("📉 Mood is declining\n")
	}

	if len(alerts) == 0 {
		return b.String()
	}

	b.WriteString("\nRecent entries:\n")
	// newest first
	listed := 0
	for i := len(alerts) - 1; i >= 0 && listed < maxListedAlerts; i-- {
		a := alerts[i]
		fmt.Fprintf(&b, "• %s mood %d/10 (score %.0f)", a.Created.Format("2006-01-02"), a.Mood, a.CompositeScore)
		if a.Comment != "" {
			fmt.Fprintf(&b, ": %s", preview(a.Comment))
		}
		b.WriteString("\n")
		listed++
	}
	if rest := len(alerts) - listed; rest > 0 {
		fmt.Fprintf(&b, "…and %d more\n", rest)
	}
	return b.String()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= commentPreviewLen {
		return s
	}
	return string(r[:commentPreviewLen]) + "..."
}
