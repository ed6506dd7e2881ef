package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"moodwatch/internal/analysis"
	"moodwatch/internal/metrics"
	"moodwatch/internal/models"
	"moodwatch/internal/recommendation"
)

var (
	ErrDataUnavailable = errors.New("entry data unavailable")
	ErrNoEntries       = errors.New("no entries in lookback window")
)

// InsightsConfig carries the analysis settings.
type InsightsConfig struct {
	MoodThreshold int
	LookbackDays  int
	TrendWindow   int
	FetchTimeout  time.Duration
}

type InsightsService interface {
	Alerts(ctx context.Context, threshold, days int) models.AlertFeed
	Correlations(ctx context.Context) models.CorrelationReport
	Summary(ctx context.Context) (models.Summary, error)
	AveragesByUser(ctx context.Context) ([]models.UserAverage, error)
	UserRisk(ctx context.Context, handle string, days int) (*models.UserRiskAssessment, error)
	Assessments(ctx context.Context, days int) ([]models.UserRiskAssessment, error)
	Recommendations(ctx context.Context, level string) ([]models.Recommendation, error)
	Config() InsightsConfig
}

type insightsService struct {
	entries EntryService
	recs    recommendation.Source
	metrics *metrics.Collector
	cfg     InsightsConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewInsightsService builds the service. Zero config values fall back to the analysis
// defaults.
func NewInsightsService(entries EntryService, recs recommendation.Source, collector *metrics.Collector, cfg InsightsConfig, logger *zap.Logger) InsightsService {
	return newInsightsService(entries, recs, collector, cfg, logger, time.Now)
}

func newInsightsService(entries EntryService, recs recommendation.Source, collector *metrics.Collector, cfg InsightsConfig, logger *zap.Logger, now func() time.Time) *insightsService {
	if cfg.MoodThreshold <= 0 {
		cfg.MoodThreshold = analysis.DefaultMoodThreshold
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = analysis.DefaultLookbackDays
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = analysis.DefaultTrendWindow
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &insightsService{
		entries: entries,
		recs:    recs,
		metrics: collector,
		cfg:     cfg,
		logger:  logger,
		now:     now,
	}
}

func (s *insightsService) Config() InsightsConfig {
	return s.cfg
}

// fetch reads one snapshot of entries under the configured timeout.
func (s *insightsService) fetch(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return entries, nil
}

func (s *insightsService) alertOptions(threshold, days int) analysis.AlertOptions {
	return analysis.AlertOptions{
		MoodThreshold: threshold,
		LookbackDays:  days,
		TrendWindow:   s.cfg.TrendWindow,
		Now:           s.now(),
	}
}

func (s *insightsService) Alerts(ctx context.Context, threshold, days int) models.AlertFeed {
	defer s.metrics.ObservePipeline("alerts", time.Now())

	opts := s.alertOptions(threshold, days)
	cutoff := opts.Cutoff()
	entries, err := s.fetch(ctx, models.EntryFilter{Since: &cutoff})
	if err != nil {
		s.logger.Warn("Alert feed built without data", zap.Error(err))
		return models.AlertFeed{Items: []models.Alert{}}
	}

	feed := analysis.BuildAlerts(entries, opts)
	s.metrics.RecordAlerts(feed.Count)
	s.logger.Debug("Alert feed built",
		zap.Int("entries", len(entries)),
		zap.Int("alerts", feed.Count),
		zap.Int("threshold", threshold),
		zap.Int("days", days))
	return feed
}

func (s *insightsService) Correlations(ctx context.Context) models.CorrelationReport {
	defer s.metrics.ObservePipeline("correlations", time.Now())

	entries, err := s.fetch(ctx, models.EntryFilter{})
	if err != nil {
		s.logger.Warn("Correlations computed without data", zap.Error(err))
		return models.CorrelationReport{Error: analysis.MsgNoData}
	}

	report := analysis.ComputeCorrelations(entries)
	if report.Failed() {
		s.logger.Info("Correlations unavailable", zap.String("reason", report.Error), zap.Int("entries", len(entries)))
	}
	return report
}

func (s *insightsService) Summary(ctx context.Context) (models.Summary, error) {
	defer s.metrics.ObservePipeline("summary", time.Now())

	entries, err := s.fetch(ctx, models.EntryFilter{})
	if err != nil {
		s.logger.Warn("Summary built without data", zap.Error(err))
		return models.Summary{Count: 0}, nil
	}
	return analysis.Summarize(entries), nil
}

func (s *insightsService) AveragesByUser(ctx context.Context) ([]models.UserAverage, error) {
	defer s.metrics.ObservePipeline("averages", time.Now())

	entries, err := s.fetch(ctx, models.EntryFilter{})
	if err != nil {
		s.logger.Warn("Averages built without data", zap.Error(err))
		return []models.UserAverage{}, nil
	}
	return analysis.AveragesByUser(entries), nil
}

func (s *insightsService) UserRisk(ctx context.Context, handle string, days int) (*models.UserRiskAssessment, error) {
	defer s.metrics.ObservePipeline("user_risk", time.Now())

	opts := s.alertOptions(s.cfg.MoodThreshold, days)
	cutoff := opts.Cutoff()
	entries, err := s.fetch(ctx, models.EntryFilter{Since: &cutoff, Handle: handle})
	if err != nil {
		s.logger.Warn("User risk unavailable", zap.String("user_handle", handle), zap.Error(err))
		return nil, err
	}

	for _, a := range analysis.AssessUsers(entries, opts) {
		if a.UserHandle == handle {
			return &a, nil
		}
	}
	return nil, ErrNoEntries
}

func (s *insightsService) Assessments(ctx context.Context, days int) ([]models.UserRiskAssessment, error) {
	defer s.metrics.ObservePipeline("assessments", time.Now())

	opts := s.alertOptions(s.cfg.MoodThreshold, days)
	cutoff := opts.Cutoff()
	entries, err := s.fetch(ctx, models.EntryFilter{Since: &cutoff})
	if err != nil {
		s.logger.Warn("Assessments unavailable", zap.Error(err))
		return nil, err
	}
	return analysis.AssessUsers(entries, opts), nil
}

func (s *insightsService) Recommendations(ctx context.Context, level string) ([]models.Recommendation, error) {
	recs, err := s.recs.ForRiskLevel(ctx, level)
	if err != nil {
		s.logger.Error("Failed to load recommendations", zap.String("risk_level", level), zap.Error(err))
		return nil, err
	}
	return recs, nil
}
