package models

import "time"

// Task represents a to-do item, optionally tied to a course.
type Task struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          string     `json:"user_id" gorm:"type:uuid;not null;index"`
	CourseID        *string    `json:"course_id" gorm:"type:uuid"`
	Title           string     `json:"title" gorm:"not null"`
	Description     *string    `json:"description"`
	Priority        string     `json:"priority" gorm:"default:medium"` // low, medium, high
	DueAt           *time.Time `json:"due_at"`
	Completed       bool       `json:"completed" gorm:"default:false"`
	CompletedAt     *time.Time `json:"completed_at"`
	CalendarEventID *string    `json:"calendar_event_id"` // set once pushed to Google Calendar
	ReminderSentAt  *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Task
func (Task) TableName() string {
	return "tasks"
}
