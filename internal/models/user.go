package models

import "time"

// User represents a StudyHub account. The *_connected booleans are a
// denormalized cache of link status for the OAuth providers; the
// authoritative record is the oauth_tokens row.
type User struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid"`
	Username        string    `json:"username" gorm:"uniqueIndex;not null"`
	Email           string    `json:"email" gorm:"uniqueIndex;not null"`
	Password        string    `json:"-" gorm:"not null"` // Never expose password in JSON
	GoogleConnected bool      `json:"google_connected" gorm:"default:false"`
	CanvasConnected bool      `json:"canvas_connected" gorm:"default:false"`
	CanvasBaseURL   *string   `json:"canvas_base_url"`
	Active          bool      `json:"active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`

	// Relationships (optional, for eager loading)
	Tasks       []Task         `json:"-" gorm:"foreignKey:UserID"`
	Courses     []Course       `json:"-" gorm:"foreignKey:UserID"`
	MoodEntries []MoodEntry    `json:"-" gorm:"foreignKey:UserID"`
	Reminders   []ReminderRule `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// ConnectionFlags is the client-visible link-status projection of a
// user row. It is advisory only; anything that actually needs a token
// must read the oauth_tokens table.
type ConnectionFlags struct {
	GoogleConnected bool    `json:"google_connected"`
	CanvasConnected bool    `json:"canvas_connected"`
	CanvasBaseURL   *string `json:"canvas_base_url,omitempty"`
}

// Flags returns the user's connection flags.
func (u *User) Flags() ConnectionFlags {
	return ConnectionFlags{
		GoogleConnected: u.GoogleConnected,
		CanvasConnected: u.CanvasConnected,
		CanvasBaseURL:   u.CanvasBaseURL,
	}
}
