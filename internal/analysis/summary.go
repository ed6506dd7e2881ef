package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"moodwatch/internal/models"
)

// Summarize describes the mood distribution of a snapshot: count, mean, sample standard
// deviation, min, quartiles and max. Undefined statistics are reported as nil.
func Summarize(entries []models.Entry) models.Summary {
	if len(entries) == 0 {
		return models.Summary{Count: 0}
	}

	moods := make(stats.Float64Data, len(entries))
	for i, e := range entries {
		moods[i] = float64(e.Mood)
	}
	sorted := append([]float64(nil), moods...)
	sort.Float64s(sorted)

	mean, _ := stats.Mean(moods)
	std, _ := stats.StandardDeviationSample(moods)
	lo, _ := stats.Min(moods)
	hi, _ := stats.Max(moods)
	median, _ := stats.Median(moods)

	return models.Summary{
		Count: len(entries),
		MoodStats: map[string]*float64{
			"count": finite(float64(len(moods))),
			"mean":  finite(mean),
			"std":   finite(std),
			"min":   finite(lo),
			"25%":   finite(quantile(sorted, 0.25)),
			"50%":   finite(median),
			"75%":   finite(quantile(sorted, 0.75)),
			"max":   finite(hi),
		},
	}
}

// quantile interpolates linearly between closest ranks. stats.Percentile uses a
// nearest-rank definition that disagrees with the historical reports.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// AveragesByUser returns each user's mean mood, highest first. Ties are ordered by handle.
func AveragesByUser(entries []models.Entry) []models.UserAverage {
	moods := make(map[string]stats.Float64Data)
	for _, e := range entries {
		moods[e.UserHandle] = append(moods[e.UserHandle], float64(e.Mood))
	}

	out := make([]models.UserAverage, 0, len(moods))
	for handle, values := range moods {
		mean, _ := stats.Mean(values)
		out = append(out, models.UserAverage{UserHandle: handle, AverageMood: mean})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageMood != out[j].AverageMood {
			return out[i].AverageMood > out[j].AverageMood
		}
		return out[i].UserHandle < out[j].UserHandle
	})
	return out
}
