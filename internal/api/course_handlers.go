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
)

// CourseRequest represents a course create/update payload
type CourseRequest struct {
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	CurrentGrade *float64 `json:"current_grade"`
}

// AssignmentRequest represents a manual assignment payload
type AssignmentRequest struct {
	Name        string     `json:"name"`
	Score       *float64   `json:"score"`
	MaxScore    float64    `json:"max_score"`
	DueAt       *time.Time `json:"due_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// HandleGetCourses lists the user's courses with their assignments
func HandleGetCourses(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var courses []models.Course
		err := db.Where("user_id = ?", user.ID).
			Preload("Assignments", func(db *gorm.DB) *gorm.DB {
				return db.Order("due_at ASC")
			}).
			Order("name ASC").
			Find(&courses).Error
		if err != nil {
			log.Println("Courses: failed to list courses:", err.Error())
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, courses)
	}
}

// HandleCreateCourse creates a manually entered course
func HandleCreateCourse(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		var req CourseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Name is required")
			return
		}

		course := models.Course{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			Name:         req.Name,
			Code:         req.Code,
			CurrentGrade: req.CurrentGrade,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		if err := db.Create(&course).Error; err != nil {
			log.Println("Courses: failed to create course:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to create course")
			return
		}

		respondJSON(w, http.StatusCreated, course)
	}
}

// HandleUpdateCourse updates a course
func HandleUpdateCourse(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		courseID := chi.URLParam(r, "id")

		var course models.Course
		err := db.Where("id = ? AND user_id = ?", courseID, user.ID).First(&course).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Course not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var req CourseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if req.Name != "" {
			course.Name = req.Name
		}
		course.Code = req.Code
		course.CurrentGrade = req.CurrentGrade
		course.UpdatedAt = time.Now()

		if err := db.Save(&course).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update course")
			return
		}

		respondJSON(w, http.StatusOK, course)
	}
}

// HandleDeleteCourse deletes a course and its assignments
func HandleDeleteCourse(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		courseID := chi.URLParam(r, "id")

		err := db.Transaction(func(tx *gorm.DB) error {
			result := tx.Where("id = ? AND user_id = ?", courseID, user.ID).Delete(&models.Course{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return tx.Where("course_id = ?", courseID).Delete(&models.Assignment{}).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Course not found")
			return
		}
		if err != nil {
			log.Println("Courses: failed to delete course:", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to delete course")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCreateAssignment adds a manual assignment to a course
func HandleCreateAssignment(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		courseID := chi.URLParam(r, "id")

		var course models.Course
		err := db.Where("id = ? AND user_id = ?", courseID, user.ID).First(&course).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Course not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		var req AssignmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Name is required")
			return
		}
		if req.MaxScore <= 0 {
			respondError(w, http.StatusBadRequest, "Max score must be positive")
			return
		}

		assignment := models.Assignment{
			ID:          uuid.NewString(),
			CourseID:    course.ID,
			Name:        req.Name,
			Score:       req.Score,
			MaxScore:    req.MaxScore,
			DueAt:       req.DueAt,
			SubmittedAt: req.SubmittedAt,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := db.Create(&assignment).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create assignment")
			return
		}

		respondJSON(w, http.StatusCreated, assignment)
	}
}

// HandleDeleteAssignment removes an assignment from a user's course
func HandleDeleteAssignment(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		assignmentID := chi.URLParam(r, "assignmentID")

		result := db.Where(
			"id = ? AND course_id IN (SELECT id FROM courses WHERE user_id = ?)",
			assignmentID, user.ID,
		).Delete(&models.Assignment{})
		if result.Error != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete assignment")
			return
		}
		if result.RowsAffected == 0 {
			respondError(w, http.StatusNotFound, "Assignment not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
