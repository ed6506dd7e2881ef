package analysis

import (
	"time"

	"moodwatch/internal/models"
)

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

// moodEntries builds one entry per mood for handle, one day apart and ending a day
// before testNow.
func moodEntries(startID int64, handle string, moods ...int) []models.Entry {
	out := make([]models.Entry, len(moods))
	for i, m := range moods {
		out[i] = models.Entry{
			ID:         startID + int64(i),
			UserHandle: handle,
			Mood:       m,
			Created:    testNow.AddDate(0, 0, -(len(moods) - i)),
		}
	}
	return out
}

func scoredMoods(moods ...int) []models.ScoredEntry {
	out := make([]models.ScoredEntry, len(moods))
	for i, e := range moodEntries(1, "u", moods...) {
		out[i] = Score(e)
	}
	return out
}
