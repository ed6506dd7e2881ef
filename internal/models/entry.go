package models

import "time"

// Entry is a single journal record as supplied by the entry store.
type Entry struct {
	ID            int64     `db:"id" json:"id"`
	UserHandle    string    `db:"user_handle" json:"user_handle"`
	Mood          int       `db:"mood" json:"mood"`
	SleepHours    *float64  `db:"sleep_hours" json:"sleep_hours"`
	Appetite      *int      `db:"appetite" json:"appetite"`
	Concentration *int      `db:"concentration" json:"concentration"`
	Comment       *string   `db:"comment" json:"comment"`
	Created       time.Time `db:"created" json:"created"`
}

// CommentText returns the comment or an empty string when absent.
func (e Entry) CommentText() string {
	if e.Comment == nil {
		return ""
	}
	return *e.Comment
}

// ScoredEntry is an Entry with its composite wellbeing score attached.
type ScoredEntry struct {
	Entry
	CompositeScore float64 `json:"composite_score"`
}

// EntryFilter narrows an entry read. Zero values mean "no constraint".
type EntryFilter struct {
	Since  *time.Time
	Handle string
}

// CreateEntryInput is the payload for recording a new entry.
type CreateEntryInput struct {
	UserHandle    string   `json:"user_handle" binding:"required"`
	Mood          int      `json:"mood" binding:"required,min=1,max=10"`
	SleepHours    *float64 `json:"sleep_hours" binding:"omitempty,min=0,max=24"`
	Appetite      *int     `json:"appetite" binding:"omitempty,min=1,max=10"`
	Concentration *int     `json:"concentration" binding:"omitempty,min=1,max=10"`
	Comment       *string  `json:"comment"`
}
