package models

import (
	"fmt"
	"time"
)

// UserSettings holds user-configurable settings like pomodoro lengths
// and data retention periods
type UserSettings struct {
	ID                       int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID                   string    `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	FocusMinutes             int       `json:"focus_minutes" gorm:"default:25;not null"`
	ShortBreakMinutes        int       `json:"short_break_minutes" gorm:"default:5;not null"`
	LongBreakMinutes         int       `json:"long_break_minutes" gorm:"default:15;not null"`
	ReminderLeadMinutes      int       `json:"reminder_lead_minutes" gorm:"default:60;not null"`
	PomodoroRetentionDays    int       `json:"pomodoro_retention_days" gorm:"default:365;not null"`
	MoodEntryRetentionDays   int       `json:"mood_entry_retention_days" gorm:"default:730;not null"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for UserSettings
func (UserSettings) TableName() string {
	return "user_settings"
}

// Validate checks settings values are within acceptable ranges
func (s *UserSettings) Validate() error {
	if s.FocusMinutes < 5 || s.FocusMinutes > 120 {
		return fmt.Errorf("focus length must be between 5 and 120 minutes")
	}
	if s.ShortBreakMinutes < 1 || s.ShortBreakMinutes > 30 {
		return fmt.Errorf("short break must be between 1 and 30 minutes")
	}
	if s.LongBreakMinutes < 5 || s.LongBreakMinutes > 60 {
		return fmt.Errorf("long break must be between 5 and 60 minutes")
	}
	if s.ReminderLeadMinutes < 5 || s.ReminderLeadMinutes > 1440 {
		return fmt.Errorf("reminder lead time must be between 5 minutes and 1 day")
	}
	if s.PomodoroRetentionDays < 30 || s.PomodoroRetentionDays > 1825 {
		return fmt.Errorf("pomodoro retention must be between 30 and 1825 days")
	}
	if s.MoodEntryRetentionDays < 30 || s.MoodEntryRetentionDays > 1825 {
		return fmt.Errorf("mood entry retention must be between 30 and 1825 days")
	}
	return nil
}

// DefaultUserSettings returns settings with default values
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:                 userID,
		FocusMinutes:           25,
		ShortBreakMinutes:      5,
		LongBreakMinutes:       15,
		ReminderLeadMinutes:    60,
		PomodoroRetentionDays:  365,
		MoodEntryRetentionDays: 730,
	}
}
