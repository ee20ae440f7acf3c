package models

import "time"

// PomodoroSession records one completed focus interval.
type PomodoroSession struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          string     `json:"user_id" gorm:"type:uuid;not null;index"`
	TaskID          *string    `json:"task_id" gorm:"type:uuid"`
	Kind            string     `json:"kind" gorm:"default:focus"` // focus, short_break, long_break
	DurationMinutes int        `json:"duration_minutes" gorm:"not null"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null"`
	EndedAt         *time.Time `json:"ended_at"`
	Completed       bool       `json:"completed" gorm:"default:false"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName specifies the table name for PomodoroSession
func (PomodoroSession) TableName() string {
	return "pomodoro_sessions"
}
