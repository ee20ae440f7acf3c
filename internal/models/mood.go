package models

import (
	"fmt"
	"time"
)

// MoodEntry is one wellness journal entry. Mood and energy are 1-5.
type MoodEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_mood_entries_user_date"`
	Mood      int       `json:"mood" gorm:"not null"`
	Energy    int       `json:"energy" gorm:"not null"`
	SleptHrs  *float64  `json:"slept_hours"`
	Note      *string   `json:"note"`
	EntryDate time.Time `json:"entry_date" gorm:"not null;uniqueIndex:idx_mood_entries_user_date"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for MoodEntry
func (MoodEntry) TableName() string {
	return "mood_entries"
}

// Validate checks mood and energy are on the 1-5 scale.
func (m *MoodEntry) Validate() error {
	if m.Mood < 1 || m.Mood > 5 {
		return fmt.Errorf("mood must be between 1 and 5")
	}
	if m.Energy < 1 || m.Energy > 5 {
		return fmt.Errorf("energy must be between 1 and 5")
	}
	if m.SleptHrs != nil && (*m.SleptHrs < 0 || *m.SleptHrs > 24) {
		return fmt.Errorf("slept_hours must be between 0 and 24")
	}
	return nil
}
