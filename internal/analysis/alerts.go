package analysis

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"moodwatch/internal/models"
)

// Defaults for the alert feed.
const (
	DefaultMoodThreshold = 3
	DefaultLookbackDays  = 30
)

// AlertOptions controls how the alert feed is built.
type AlertOptions struct {
	MoodThreshold int
	LookbackDays  int
	TrendWindow   int
	// Now anchors the lookback window.
	Now time.Time
}

// DefaultAlertOptions returns the standard thresholds anchored at now.
func DefaultAlertOptions(now time.Time) AlertOptions {
	return AlertOptions{
		MoodThreshold: DefaultMoodThreshold,
		LookbackDays:  DefaultLookbackDays,
		TrendWindow:   DefaultTrendWindow,
		Now:           now,
	}
}

// Cutoff is the oldest creation time still inside the lookback window.
func (o AlertOptions) Cutoff() time.Time {
	return o.Now.Add(-time.Duration(o.LookbackDays) * 24 * time.Hour)
}

// UserSeries is one user's in-window entries, scored and in chronological order,
// together with the resulting assessment.
type UserSeries struct {
	Entries    []models.ScoredEntry
	Assessment models.UserRiskAssessment
}

// GroupByUser drops entries created before since, groups the rest by user handle in
// order of first appearance and assesses every group.
func GroupByUser(entries []models.Entry, since time.Time, trendWindow int) []UserSeries {
	order := make([]string, 0)
	groups := make(map[string][]models.Entry)
	for _, e := range entries {
		if e.Created.Before(since) {
			continue
		}
		if _, seen := groups[e.UserHandle]; !seen {
			order = append(order, e.UserHandle)
		}
		groups[e.UserHandle] = append(groups[e.UserHandle], e)
	}

	series := make([]UserSeries, 0, len(order))
	for _, handle := range order {
		group := groups[handle]
		if len(group) == 0 {
			continue
		}
		series = append(series, assess(handle, group, trendWindow))
	}
	return series
}

func assess(handle string, group []models.Entry, trendWindow int) UserSeries {
	sorted := append([]models.Entry(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Created.Before(sorted[j].Created)
	})

	scored := make([]models.ScoredEntry, len(sorted))
	scores := make(stats.Float64Data, len(sorted))
	for i, e := range sorted {
		scored[i] = Score(e)
		scores[i] = scored[i].CompositeScore
	}

	// groups are never empty, so Mean cannot fail
	average, _ := stats.Mean(scores)
	trend := IsDeclining(scored, trendWindow)

	return UserSeries{
		Entries: scored,
		Assessment: models.UserRiskAssessment{
			UserHandle:            handle,
			AverageCompositeScore: Round(average, 2),
			TrendNegative:         trend,
			RiskLevel:             Classify(average, trend),
			EntryCount:            len(scored),
		},
	}
}

// AssessUsers returns one assessment per user with entries inside the lookback window.
func AssessUsers(entries []models.Entry, opts AlertOptions) []models.UserRiskAssessment {
	series := GroupByUser(entries, opts.Cutoff(), opts.TrendWindow)
	out := make([]models.UserRiskAssessment, len(series))
	for i, s := range series {
		out[i] = s.Assessment
	}
	return out
}

// BuildAlerts produces the alert feed for a snapshot of entries.
//
// A user contributes alerts only when their risk is not LOW or at least one of their
// entries is at or below the mood threshold. From a contributing user, an entry is
// emitted when its own mood is at or below the threshold, or when the user is HIGH risk.
func BuildAlerts(entries []models.Entry, opts AlertOptions) models.AlertFeed {
	items := make([]models.Alert, 0)
	for _, s := range GroupByUser(entries, opts.Cutoff(), opts.TrendWindow) {
		if !s.contributes(opts.MoodThreshold) {
			continue
		}
		for _, e := range s.Entries {
			if e.Mood <= opts.MoodThreshold || s.Assessment.RiskLevel == models.RiskHigh {
				items = append(items, s.alertFor(e))
			}
		}
	}
	return models.AlertFeed{Count: len(items), Items: items}
}

func (s UserSeries) contributes(threshold int) bool {
	if s.Assessment.RiskLevel != models.RiskLow {
		return true
	}
	for _, e := range s.Entries {
		if e.Mood <= threshold {
			return true
		}
	}
	return false
}

func (s UserSeries) alertFor(e models.ScoredEntry) models.Alert {
	return models.Alert{
		ID:                    e.ID,
		UserHandle:            e.UserHandle,
		Mood:                  e.Mood,
		CompositeScore:        e.CompositeScore,
		Created:               e.Created,
		Comment:               e.CommentText(),
		RiskLevel:             s.Assessment.RiskLevel,
		AverageCompositeScore: s.Assessment.AverageCompositeScore,
		TrendNegative:         s.Assessment.TrendNegative,
	}
}
