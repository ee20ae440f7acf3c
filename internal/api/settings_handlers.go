package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

// HandleGetUserSettings returns the current user's settings
func HandleGetUserSettings(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var settings models.UserSettings
		result := db.Where("user_id = ?", user.ID).First(&settings)

		// Create default settings if not exist
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			settings = models.DefaultUserSettings(user.ID)
			settings.CreatedAt = time.Now()
			settings.UpdatedAt = time.Now()
			if err := db.Create(&settings).Error; err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to create default settings")
				return
			}
		} else if result.Error != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, settings)
	}
}

// UpdateSettingsRequest updates pomodoro lengths, reminder lead time and
// retention windows. Pointer fields distinguish "absent" from zero.
type UpdateSettingsRequest struct {
	FocusMinutes           *int `json:"focus_minutes"`
	ShortBreakMinutes      *int `json:"short_break_minutes"`
	LongBreakMinutes       *int `json:"long_break_minutes"`
	ReminderLeadMinutes    *int `json:"reminder_lead_minutes"`
	PomodoroRetentionDays  *int `json:"pomodoro_retention_days"`
	MoodEntryRetentionDays *int `json:"mood_entry_retention_days"`
}

// HandleUpdateUserSettings updates the current user's settings
func HandleUpdateUserSettings(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var settings models.UserSettings
		result := db.Where("user_id = ?", user.ID).First(&settings)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			settings = models.DefaultUserSettings(user.ID)
			settings.CreatedAt = time.Now()
		} else if result.Error != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if req.FocusMinutes != nil {
			settings.FocusMinutes = *req.FocusMinutes
		}
		if req.ShortBreakMinutes != nil {
			settings.ShortBreakMinutes = *req.ShortBreakMinutes
		}
		if req.LongBreakMinutes != nil {
			settings.LongBreakMinutes = *req.LongBreakMinutes
		}
		if req.ReminderLeadMinutes != nil {
			settings.ReminderLeadMinutes = *req.ReminderLeadMinutes
		}
		if req.PomodoroRetentionDays != nil {
			settings.PomodoroRetentionDays = *req.PomodoroRetentionDays
		}
		if req.MoodEntryRetentionDays != nil {
			settings.MoodEntryRetentionDays = *req.MoodEntryRetentionDays
		}

		if err := settings.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		settings.UpdatedAt = time.Now()
		if err := db.Save(&settings).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}

		respondJSON(w, http.StatusOK, settings)
	}
}
