package models

// CorrelationReport holds mood correlations across the whole entry set.
// When Error is set the other fields are meaningless.
type CorrelationReport struct {
	Correlations    map[string]float64 `json:"correlations"`
	Interpretations []string           `json:"interpretations"`
	SampleSize      int                `json:"sample_size"`
	Error           string             `json:"-"`
}

// Failed reports whether the correlation could not be computed.
func (r CorrelationReport) Failed() bool {
	return r.Error != ""
}

// Summary describes the mood distribution. MoodStats values are nil when undefined.
type Summary struct {
	Count     int                 `json:"count"`
	MoodStats map[string]*float64 `json:"mood_stats,omitempty"`
}

// UserAverage is the mean mood of a single user.
type UserAverage struct {
	UserHandle  string  `json:"user_handle"`
	AverageMood float64 `json:"average_mood"`
}

// Recommendation is an advisory message attached to a risk level.
type Recommendation struct {
	ID          int64     `db:"id" json:"id,omitempty"`
	RiskLevel   RiskLevel `db:"risk_level" json:"-"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	URL         *string   `db:"url" json:"url,omitempty"`
}
