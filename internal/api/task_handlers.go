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

	"github.com/studyhub-app/studyhub-server/internal/gcal"
	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/store"
)

// TaskRequest represents a task create/update payload
type TaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	CourseID    *string    `json:"course_id"`
	DueAt       *time.Time `json:"due_at"`
}

func validPriority(p string) bool {
	return p == "low" || p == "medium" || p == "high"
}

// HandleGetTasks lists the user's tasks, newest first
func HandleGetTasks(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		query := db.Where("user_id = ?", user.ID)
		if completed := r.URL.Query().Get("completed"); completed != "" {
			query = query.Where("completed = ?", completed == "true")
		}

		var tasks []models.Task
		if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
			log.Println("Tasks: failed to list tasks:", err.Error())
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, tasks)
	}
}

// HandleCreateTask creates a task
func HandleCreateTask(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if req.Title == "" {
			respondError(w, http.StatusBadRequest, "Title is required")
			return
		}
		if req.Priority == "" {
			req.Priority = "medium"
		}
		if !validPriority(req.Priority) {
			respondError(w, http.StatusBadRequest, "Priority must be low, medium or high")
			return
		}

		task := models.Task{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			CourseID:    req.CourseID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			DueAt:       req.DueAt,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := db.Create(&task).Error; err != nil {
			log.Println("Tasks: failed to create task:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to create task")
			return
		}

		respondJSON(w, http.StatusCreated, task)
	}
}

// HandleUpdateTask updates a task
func HandleUpdateTask(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		taskID := chi.URLParam(r, "id")

		var task models.Task
		err := db.Where("id = ? AND user_id = ?", taskID, user.ID).First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var req TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if req.Title != "" {
			task.Title = req.Title
		}
		if req.Priority != "" {
			if !validPriority(req.Priority) {
				respondError(w, http.StatusBadRequest, "Priority must be low, medium or high")
				return
			}
			task.Priority = req.Priority
		}
		task.Description = req.Description
		task.CourseID = req.CourseID
		task.DueAt = req.DueAt
		task.UpdatedAt = time.Now()

		if err := db.Save(&task).Error; err != nil {
			log.Println("Tasks: failed to update task:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to update task")
			return
		}

		respondJSON(w, http.StatusOK, task)
	}
}

// HandleToggleTask flips a task's completed state
func HandleToggleTask(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		taskID := chi.URLParam(r, "id")

		var task models.Task
		err := db.Where("id = ? AND user_id = ?", taskID, user.ID).First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		task.Completed = !task.Completed
		if task.Completed {
			now := time.Now()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
		task.UpdatedAt = time.Now()

		if err := db.Save(&task).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update task")
			return
		}

		respondJSON(w, http.StatusOK, task)
	}
}

// HandleDeleteTask deletes a task
func HandleDeleteTask(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		taskID := chi.URLParam(r, "id")

		result := db.Where("id = ? AND user_id = ?", taskID, user.ID).Delete(&models.Task{})
		if result.Error != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete task")
			return
		}
		if result.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandlePushTaskToCalendar creates a Google Calendar event for a task
// using the stored Google token.
func HandlePushTaskToCalendar(db *gorm.DB, calendar *gcal.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		taskID := chi.URLParam(r, "id")

		var task models.Task
		err := db.Where("id = ? AND user_id = ?", taskID, user.ID).First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		if task.DueAt == nil {
			respondError(w, http.StatusBadRequest, "Task has no due date")
			return
		}

		eventID, err := calendar.CreateTaskEvent(r.Context(), user.ID, &task)
		if errors.Is(err, store.ErrNotConnected) {
			respondError(w, http.StatusConflict, "Google Calendar is not connected")
			return
		}
		if err != nil {
			log.Println("Tasks: failed to create calendar event:", err.Error())
			respondError(w, http.StatusBadGateway, "Failed to create calendar event")
			return
		}

		task.CalendarEventID = &eventID
		task.UpdatedAt = time.Now()
		if err := db.Save(&task).Error; err != nil {
			log.Println("Tasks: failed to save calendar event id:", err.Error())
		}

		respondJSON(w, http.StatusOK, task)
	}
}
