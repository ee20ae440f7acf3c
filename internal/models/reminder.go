package models

import "time"

// ReminderRule is a per-user delivery channel for task-due reminders.
// Config is channel-specific JSON (webhook URL, discord webhook, ntfy
// topic) parsed by the notification package.
type ReminderRule struct {
	ID        int                    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string                 `json:"user_id" gorm:"type:uuid;not null;index"`
	Name      string                 `json:"name" gorm:"not null"`
	Type      string                 `json:"type" gorm:"not null"` // webhook, discord, ntfy
	Config    map[string]interface{} `json:"config" gorm:"-"`
	ConfigRaw string                 `json:"-" gorm:"column:config"` // JSON storage
	Active    bool                   `json:"active" gorm:"default:true"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// TableName specifies the table name for ReminderRule
func (ReminderRule) TableName() string {
	return "reminder_rules"
}
