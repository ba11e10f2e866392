package models

import "time"

// Blocking is a one-off unavailable window on a single date.
type Blocking struct {
	ID          int64     `json:"id"`
	CoachID     int64     `json:"coach_id"`
	BlockedDate string    `json:"blocked_date"` // YYYY-MM-DD
	StartTime   string    `json:"start_time"`   // HH:MM
	EndTime     string    `json:"end_time"`     // HH:MM
	Reason      *string   `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecurringBlocking repeats weekly on a day of week (0=Sunday..6=Saturday)
// until deleted.
type RecurringBlocking struct {
	ID        int64     `json:"id"`
	CoachID   int64     `json:"coach_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`   // HH:MM
	Reason    *string   `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
