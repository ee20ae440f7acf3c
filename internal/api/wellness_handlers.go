package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

// MoodEntryRequest represents a wellness check-in
type MoodEntryRequest struct {
	Mood      int      `json:"mood"`
	Energy    int      `json:"energy"`
	SleptHrs  *float64 `json:"slept_hours"`
	Note      *string  `json:"note"`
	EntryDate string   `json:"entry_date"` // YYYY-MM-DD, defaults to today
}

// HandleLogMood records (or replaces) the day's mood entry
func HandleLogMood(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req MoodEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		entryDate := time.Now().Truncate(24 * time.Hour)
		if req.EntryDate != "" {
			parsed, err := time.Parse("2006-01-02", req.EntryDate)
			if err != nil {
				respondError(w, http.StatusBadRequest, "entry_date must be YYYY-MM-DD")
				return
			}
			entryDate = parsed
		}

		entry := models.MoodEntry{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Mood:      req.Mood,
			Energy:    req.Energy,
			SleptHrs:  req.SleptHrs,
			Note:      req.Note,
			EntryDate: entryDate,
			CreatedAt: time.Now(),
		}
		if err := entry.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		// One entry per user per day; logging again replaces it
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "entry_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"mood", "energy", "slept_hrs", "note",
			}),
		}).Create(&entry).Error
		if err != nil {
			log.Println("Wellness: failed to save mood entry:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to save entry")
			return
		}

		respondJSON(w, http.StatusCreated, entry)
	}
}

// HandleGetMoodEntries lists entries for the last N days (default 30)
func HandleGetMoodEntries(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		days := 30
		if d := r.URL.Query().Get("days"); d == "7" {
			days = 7
		} else if d == "90" {
			days = 90
		}
		since := time.Now().AddDate(0, 0, -days)

		var entries []models.MoodEntry
		err := db.Where("user_id = ? AND entry_date >= ?", user.ID, since).
			Order("entry_date DESC").
			Find(&entries).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, entries)
	}
}

// HandleDeleteMoodEntry removes one entry
func HandleDeleteMoodEntry(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		entryID := chi.URLParam(r, "id")

		result := db.Where("id = ? AND user_id = ?", entryID, user.ID).Delete(&models.MoodEntry{})
		if result.Error != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete entry")
			return
		}
		if result.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "Entry not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// MoodSummary aggregates averages over the queried window
type MoodSummary struct {
	Entries       int64    `json:"entries"`
	AvgMood       *float64 `json:"avg_mood"`
	AvgEnergy     *float64 `json:"avg_energy"`
	AvgSleptHours *float64 `json:"avg_slept_hours"`
}

// HandleGetMoodSummary returns average mood/energy/sleep for the last N days
func HandleGetMoodSummary(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		days := 30
		if d := r.URL.Query().Get("days"); d == "7" {
			days = 7
		} else if d == "90" {
			days = 90
		}
		since := time.Now().AddDate(0, 0, -days)

		var summary MoodSummary
		row := db.Model(&models.MoodEntry{}).
			Where("user_id = ? AND entry_date >= ?", user.ID, since).
			Select("COUNT(*), AVG(mood), AVG(energy), AVG(slept_hrs)").Row()
		if err := row.Scan(&summary.Entries, &summary.AvgMood, &summary.AvgEnergy, &summary.AvgSleptHours); err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, summary)
	}
}
