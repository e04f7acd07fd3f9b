package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

type SleepLog struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	Quality       *int      `json:"quality,omitempty"` // 1–5 scale, nil until rated
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActiveSleep is a session that has started but not ended yet.
type ActiveSleep struct {
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	CreatedAt time.Time `json:"created_at"`
}

// PatternSnapshot is the last classification stored for a user.
type PatternSnapshot struct {
	UserID       string    `json:"user_id"`
	Pattern      string    `json:"pattern"`
	Issues       []string  `json:"issues,omitempty"`
	SessionCount int       `json:"session_count"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}
