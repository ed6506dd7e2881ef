package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"moodwatch/internal/metrics"
	"moodwatch/internal/models"
	"moodwatch/internal/recommendation"
	"moodwatch/internal/repository"
)

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

var errStoreDown = errors.New("connection refused")

type failingStore struct{}

func (failingStore) ListEntries(context.Context, models.EntryFilter) ([]models.Entry, error) {
	return nil, errStoreDown
}

func (failingStore) CreateEntry(context.Context, *models.Entry) error {
	return errStoreDown
}

// reversingSealer is a reversible stand-in for crypto.KeyManager.
type reversingSealer struct {
	failOpen bool
}

func (reversingSealer) EncryptComment(handle, plaintext string) (string, error) {
	return "sealed:" + handle + ":" + reverse(plaintext), nil
}

func (s reversingSealer) DecryptComment(handle, stored string) (string, error) {
	if s.failOpen {
		return "", errors.New("bad tag")
	}
	prefix := "sealed:" + handle + ":"
	if len(stored) < len(prefix) || stored[:len(prefix)] != prefix {
		return "", fmt.Errorf("not sealed for %s", handle)
	}
	return reverse(stored[len(prefix):]), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// entry builds an entry created daysAgo days before testNow.
func entry(id int64, handle string, mood int, daysAgo int) models.Entry {
	return models.Entry{
		ID:         id,
		UserHandle: handle,
		Mood:       mood,
		Created:    testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
}

func newTestInsights(repo repository.EntryRepository) (*insightsService, *metrics.Collector) {
	collector := metrics.NewCollector()
	entries := NewEntryService(repo, nil, zap.NewNop())
	svc := newInsightsService(entries, recommendation.NewStaticSource(), collector, InsightsConfig{}, zap.NewNop(), func() time.Time { return testNow })
	return svc, collector
}
