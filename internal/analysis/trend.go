package analysis

import "moodwatch/internal/models"

// DefaultTrendWindow is the number of most recent entries inspected for a decline.
const DefaultTrendWindow = 3

// IsDeclining reports whether the moods of the last window entries never go up.
// Entries must be in chronological order. A flat run counts as declining.
// The test looks at raw mood, not at the composite score.
func IsDeclining(entries []models.ScoredEntry, window int) bool {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if len(entries) < window {
		return false
	}

	recent := entries[len(entries)-window:]
	for i := 1; i < len(recent); i++ {
		if recent[i].Mood > recent[i-1].Mood {
			return false
		}
	}
	return true
}
