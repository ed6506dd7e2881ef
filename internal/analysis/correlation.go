package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"moodwatch/internal/models"
)

// Messages returned in CorrelationReport.Error.
const (
	MsgNoData           = "No data available"
	MsgInsufficientData = "Insufficient data for correlations"
)

type numericField struct {
	name  string
	value func(models.Entry) (float64, bool)
}

// correlatedFields are compared against mood, in report order.
var correlatedFields = []numericField{
	{name: "sleep_hours", value: func(e models.Entry) (float64, bool) {
		if e.SleepHours == nil {
			return 0, false
		}
		return *e.SleepHours, true
	}},
	{name: "appetite", value: func(e models.Entry) (float64, bool) {
		if e.Appetite == nil {
			return 0, false
		}
		return float64(*e.Appetite), true
	}},
	{name: "concentration", value: func(e models.Entry) (float64, bool) {
		if e.Concentration == nil {
			return 0, false
		}
		return float64(*e.Concentration), true
	}},
}

// ComputeCorrelations correlates mood with every optional rating over the whole set.
// Only pairs where both values are present are used. A field needs at least two such
// pairs to take part; undefined coefficients are left out of the report.
func ComputeCorrelations(entries []models.Entry) models.CorrelationReport {
	if len(entries) == 0 {
		return models.CorrelationReport{Error: MsgNoData}
	}

	correlations := make(map[string]float64)
	interpretations := make([]string, 0, len(correlatedFields))
	usable := 0
	for _, f := range correlatedFields {
		moods, values := pairedObservations(entries, f)
		if len(values) < 2 {
			continue
		}
		usable++

		r, ok := pearson(moods, values)
		if !ok {
			continue
		}
		key := "mood_vs_" + f.name
		r = Round(r, 3)
		correlations[key] = r
		interpretations = append(interpretations, Interpret(key, r))
	}

	// mood plus at least one rating
	if usable == 0 {
		return models.CorrelationReport{Error: MsgInsufficientData}
	}

	return models.CorrelationReport{
		Correlations:    correlations,
		Interpretations: interpretations,
		SampleSize:      len(entries),
	}
}

func pairedObservations(entries []models.Entry, f numericField) (stats.Float64Data, stats.Float64Data) {
	var moods, values stats.Float64Data
	for _, e := range entries {
		v, ok := f.value(e)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		moods = append(moods, float64(e.Mood))
		values = append(values, v)
	}
	return moods, values
}

// pearson returns false when the coefficient is undefined. stats.Pearson reports 0 for a
// constant column, so variance is checked first.
func pearson(x, y stats.Float64Data) (float64, bool) {
	for _, d := range []stats.Float64Data{x, y} {
		sd, err := stats.StandardDeviationPopulation(d)
		if err != nil || sd == 0 || math.IsNaN(sd) {
			return 0, false
		}
	}

	r, err := stats.Pearson(x, y)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Interpret describes a coefficient in words, e.g. "mood_vs_appetite: strong positive correlation (0.812)".
func Interpret(key string, r float64) string {
	strength := "weak"
	switch abs := math.Abs(r); {
	case abs > 0.7:
		strength = "strong"
	case abs > 0.4:
		strength = "moderate"
	}

	direction := "negative"
	if r > 0 {
		direction = "positive"
	}
	return fmt.Sprintf("%s: %s %s correlation (%s)", key, strength, direction, strconv.FormatFloat(r, 'f', -1, 64))
}
