// Package analysis turns journal entries into wellbeing scores, risk levels and alerts.
//
// Everything here is a pure function of its arguments: no I/O, no logging, no shared state.
// Callers fetch a snapshot of entries and hand it over.
package analysis

import (
	"math"

	"moodwatch/internal/models"
)

// Sub-score weights. Only the weights of present fields take part in normalization.
const (
	MoodWeight          = 0.4
	SleepWeight         = 0.2
	AppetiteWeight      = 0.2
	ConcentrationWeight = 0.2
)

type component struct {
	score  float64
	weight float64
}

// activeComponents lists the sub-scores that participate for the given fields.
func activeComponents(mood int, sleepHours *float64, appetite, concentration *int) []component {
	active := make([]component, 0, 4)
	active = append(active, component{score: scaleOfTen(float64(mood)), weight: MoodWeight})
	if sleepHours != nil {
		active = append(active, component{score: SleepScore(*sleepHours), weight: SleepWeight})
	}
	if appetite != nil {
		active = append(active, component{score: scaleOfTen(float64(*appetite)), weight: AppetiteWeight})
	}
	if concentration != nil {
		active = append(active, component{score: scaleOfTen(float64(*concentration)), weight: ConcentrationWeight})
	}
	return active
}

// CompositeScore blends mood with the optional ratings into a 0-100 score.
// Values outside the documented 1-10 domains are not clamped.
func CompositeScore(mood int, sleepHours *float64, appetite, concentration *int) float64 {
	var sum, weights float64
	for _, c := range activeComponents(mood, sleepHours, appetite, concentration) {
		sum += c.score * c.weight
		weights += c.weight
	}
	return Round(sum/weights, 2)
}

// Score attaches the composite score to an entry.
func Score(e models.Entry) models.ScoredEntry {
	return models.ScoredEntry{
		Entry:          e,
		CompositeScore: CompositeScore(e.Mood, e.SleepHours, e.Appetite, e.Concentration),
	}
}

// SleepScore maps hours of sleep onto a stepped 0-100 scale peaking at 7-9 hours.
func SleepScore(hours float64) float64 {
	switch {
	case hours >= 7 && hours <= 9:
		return 100
	case (hours >= 6 && hours < 7) || (hours > 9 && hours <= 10):
		return 80
	case (hours >= 5 && hours < 6) || (hours > 10 && hours <= 11):
		return 60
	default:
		return 40
	}
}

func scaleOfTen(v float64) float64 {
	return v / 10 * 100
}

// Round rounds v to the given number of decimal places, halves away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
