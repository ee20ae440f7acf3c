package models

import "time"

// Course represents a course the user is enrolled in. Courses either
// come from manual entry or from a Canvas import, in which case
// CanvasCourseID is set and re-imports update the same row.
type Course struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID         string    `json:"user_id" gorm:"type:uuid;not null;index"`
	Name           string    `json:"name" gorm:"not null"`
	Code           string    `json:"code"`
	CurrentGrade   *float64  `json:"current_grade"`
	CanvasCourseID *int64    `json:"canvas_course_id" gorm:"index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:CourseID"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// Assignment represents a graded item within a course.
type Assignment struct {
	ID                 string     `json:"id" gorm:"primaryKey;type:uuid"`
	CourseID           string     `json:"course_id" gorm:"type:uuid;not null;index"`
	Name               string     `json:"name" gorm:"not null"`
	Score              *float64   `json:"score"`
	MaxScore           float64    `json:"max_score"`
	DueAt              *time.Time `json:"due_at"`
	SubmittedAt        *time.Time `json:"submitted_at"`
	CanvasAssignmentID *int64     `json:"canvas_assignment_id" gorm:"index"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Assignment
func (Assignment) TableName() string {
	return "assignments"
}
