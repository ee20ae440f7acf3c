package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/websocket"
)

// PomodoroStartRequest starts a focus or break interval
type PomodoroStartRequest struct {
	TaskID          *string `json:"task_id"`
	Kind            string  `json:"kind"`
	DurationMinutes int     `json:"duration_minutes"`
}

func validSessionKind(k string) bool {
	return k == "focus" || k == "short_break" || k == "long_break"
}

// HandleStartPomodoro records the start of a session
func HandleStartPomodoro(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req PomodoroStartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if req.Kind == "" {
			req.Kind = "focus"
		}
		if !validSessionKind(req.Kind) {
			respondError(w, http.StatusBadRequest, "Kind must be focus, short_break or long_break")
			return
		}

		if req.DurationMinutes == 0 {
			// Fall back to the user's configured lengths
			var settings models.UserSettings
			if err := db.Where("user_id = ?", user.ID).First(&settings).Error; err != nil {
				settings = models.DefaultUserSettings(user.ID)
			}
			switch req.Kind {
			case "short_break":
				req.DurationMinutes = settings.ShortBreakMinutes
			case "long_break":
				req.DurationMinutes = settings.LongBreakMinutes
			default:
				req.DurationMinutes = settings.FocusMinutes
			}
		}
		if req.DurationMinutes < 1 || req.DurationMinutes > 180 {
			respondError(w, http.StatusBadRequest, "Duration must be between 1 and 180 minutes")
			return
		}

		session := models.PomodoroSession{
			ID:              uuid.NewString(),
			UserID:          user.ID,
			TaskID:          req.TaskID,
			Kind:            req.Kind,
			DurationMinutes: req.DurationMinutes,
			StartedAt:       time.Now(),
			CreatedAt:       time.Now(),
		}

		if err := db.Create(&session).Error; err != nil {
			log.Println("Pomodoro: failed to start session:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to start session")
			return
		}

		respondJSON(w, http.StatusCreated, session)
	}
}

// HandleCompletePomodoro marks a session finished and tells the user's
// other open tabs about it.
func HandleCompletePomodoro(db *gorm.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		sessionID := chi.URLParam(r, "id")

		var session models.PomodoroSession
		err := db.Where("id = ? AND user_id = ?", sessionID, user.ID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if session.EndedAt != nil {
			respondError(w, http.StatusConflict, "Session already ended")
			return
		}

		now := time.Now()
		session.EndedAt = &now
		session.Completed = true

		if err := db.Save(&session).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update session")
			return
		}

		if hub != nil {
			hub.SendToUser(user.ID, "pomodoro_completed", session)
		}

		respondJSON(w, http.StatusOK, session)
	}
}

// PomodoroStats summarises completed focus time over a window
type PomodoroStats struct {
	TotalSessions     int64 `json:"total_sessions"`
	CompletedSessions int64 `json:"completed_sessions"`
	FocusMinutes      int64 `json:"focus_minutes"`
}

// HandleGetPomodoroStats returns focus stats for the last N days (default 7)
func HandleGetPomodoroStats(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		days := 7
		if d := r.URL.Query().Get("days"); d == "30" {
			days = 30
		} else if d == "90" {
			days = 90
		}
		since := time.Now().AddDate(0, 0, -days)

		var stats PomodoroStats
		err := db.Model(&models.PomodoroSession{}).
			Where("user_id = ? AND kind = ? AND started_at >= ?", user.ID, "focus", since).
			Count(&stats.TotalSessions).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		err = db.Model(&models.PomodoroSession{}).
			Where("user_id = ? AND kind = ? AND completed = ? AND started_at >= ?", user.ID, "focus", true, since).
			Count(&stats.CompletedSessions).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		row := db.Model(&models.PomodoroSession{}).
			Where("user_id = ? AND kind = ? AND completed = ? AND started_at >= ?", user.ID, "focus", true, since).
			Select("COALESCE(SUM(duration_minutes), 0)").Row()
		if err := row.Scan(&stats.FocusMinutes); err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, stats)
	}
}

// HandleGetPomodoroSessions lists recent sessions
func HandleGetPomodoroSessions(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var sessions []models.PomodoroSession
		err := db.Where("user_id = ?", user.ID).
			Order("started_at DESC").
			Limit(100).
			Find(&sessions).Error
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, sessions)
	}
}
