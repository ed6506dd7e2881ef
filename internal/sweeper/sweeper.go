// Package sweeper periodically rebuilds the alert feed and notifies about HIGH risk users.
package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"moodwatch/internal/metrics"
	"moodwatch/internal/models"
	"moodwatch/internal/notifier"
	"moodwatch/internal/service"
)

// Sweeper polls the insights service on a fixed interval.
type Sweeper struct {
	insights service.InsightsService
	notifier notifier.Notifier
	metrics  *metrics.Collector
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	notified map[string]int64 // user handle -> newest alert id already notified
}

func NewSweeper(insights service.InsightsService, n notifier.Notifier, collector *metrics.Collector, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		insights: insights,
		notifier: n,
		metrics:  collector,
		interval: interval,
		logger:   logger,
		notified: make(map[string]int64),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Alert sweeper started.", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Alert sweeper stopped.")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many users were notified.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cfg := s.insights.Config()
	feed := s.insights.Alerts(ctx, cfg.MoodThreshold, cfg.LookbackDays)
	groups := highRiskGroups(feed.Items)
	s.forgetRecovered(groups)
	if len(groups) == 0 {
		s.logger.Debug("No high risk users this sweep", zap.Int("alerts", feed.Count))
		return 0
	}

	sent := 0
	for _, group := range groups {
		if ctx.Err() != nil {
			return sent
		}

		newest := group.alerts[len(group.alerts)-1].ID
		if !s.isNew(group.assessment.UserHandle, newest) {
			continue
		}

		err := s.notifier.NotifyHighRisk(ctx, group.assessment, group.alerts)
		if s.metrics != nil {
			s.metrics.RecordNotification(err)
		}
		if err != nil {
			s.logger.Error("Failed to notify about high risk user",
				zap.String("user_handle", group.assessment.UserHandle),
				zap.Error(err),
			)
			continue
		}

		s.markNotified(group.assessment.UserHandle, newest)
		sent++
	}

	if sent > 0 {
		s.logger.Info("Sweep finished", zap.Int("alerts", feed.Count), zap.Int("notified", sent))
	}
	return sent
}

func (s *Sweeper) isNew(handle string, newestID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.notified[handle]
	return !ok || last != newestID
}

func (s *Sweeper) markNotified(handle string, newestID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[handle] = newestID
}

// forgetRecovered drops users who are no longer HIGH so the map only tracks current ones.
func (s *Sweeper) forgetRecovered(groups []userAlerts) {
	high := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		high[g.assessment.UserHandle] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for handle := range s.notified {
		if _, ok := high[handle]; !ok {
			delete(s.notified, handle)
		}
	}
}

type userAlerts struct {
	assessment models.UserRiskAssessment
	alerts     []models.Alert
}

// highRiskGroups splits the feed per HIGH risk user, keeping feed order.
func highRiskGroups(items []models.Alert) []userAlerts {
	index := make(map[string]int)
	groups := make([]userAlerts, 0)
	for _, a := range items {
		if a.RiskLevel != models.RiskHigh {
			continue
		}
		i, ok := index[a.UserHandle]
		if !ok {
			i = len(groups)
			index[a.UserHandle] = i
			groups = append(groups, userAlerts{assessment: assessmentOf(a)})
		}
		groups[i].alerts = append(groups[i].alerts, a)
	}
	for i := range groups {
		groups[i].assessment.EntryCount = len(groups[i].alerts)
	}
	return groups
}

func assessmentOf(a models.Alert) models.UserRiskAssessment {
	return models.UserRiskAssessment{
		UserHandle:            a.UserHandle,
		AverageCompositeScore: a.AverageCompositeScore,
		TrendNegative:         a.TrendNegative,
		RiskLevel:             a.RiskLevel,
	}
}
