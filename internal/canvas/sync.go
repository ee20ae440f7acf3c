package canvas

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
)

// Syncer imports a user's Canvas courses and grades into the local
// tables. Re-running a sync updates the rows created by the previous
// one, keyed by the Canvas ids.
type Syncer struct {
	db       *gorm.DB
	registry *oauth.Registry
	tokens   *store.TokenSource
}

// NewSyncer creates a Syncer.
func NewSyncer(db *gorm.DB, registry *oauth.Registry, tokens *store.TokenSource) *Syncer {
	return &Syncer{db: db, registry: registry, tokens: tokens}
}

// SyncResult summarizes one grade import.
type SyncResult struct {
	Courses     int `json:"courses"`
	Assignments int `json:"assignments"`
}

// Sync imports courses and assignments for the user. The tenant base
// comes from the user's saved canvas_base_url; the token comes from
// the token store and a missing or dead token surfaces as
// store.ErrNotConnected no matter what the connection flag says.
func (s *Syncer) Sync(ctx context.Context, user *models.User) (*SyncResult, error) {
	if user.CanvasBaseURL == nil || *user.CanvasBaseURL == "" {
		return nil, store.ErrNotConnected
	}

	query := url.Values{}
	query.Set("canvas_base", *user.CanvasBaseURL)
	provider, err := s.registry.Provider(oauth.KeyCanvas, query)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Canvas provider: %w", err)
	}

	accessToken, err := s.tokens.AccessToken(ctx, user.ID, provider)
	if err != nil {
		return nil, err
	}

	client := NewClient(*user.CanvasBaseURL, accessToken)

	courses, err := client.ActiveCourses(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, store.ErrNotConnected
		}
		return nil, err
	}

	result := &SyncResult{}
	for _, course := range courses {
		local, err := s.upsertCourse(ctx, user.ID, course)
		if err != nil {
			return nil, err
		}
		result.Courses++

		assignments, err := client.CourseAssignments(ctx, course.ID)
		if err != nil {
			// A single course failing to list assignments should not
			// abort the whole import.
			log.Printf("Canvas sync: failed to list assignments for course %d: %v", course.ID, err)
			continue
		}

		for _, assignment := range assignments {
			if err := s.upsertAssignment(ctx, local.ID, assignment); err != nil {
				return nil, err
			}
			result.Assignments++
		}
	}

	return result, nil
}

func (s *Syncer) upsertCourse(ctx context.Context, userID string, course Course) (*models.Course, error) {
	var grade *float64
	for _, enrollment := range course.Enrollments {
		if enrollment.Type == "student" && enrollment.ComputedCurrentScore != nil {
			grade = enrollment.ComputedCurrentScore
			break
		}
	}

	var local models.Course
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND canvas_course_id = ?", userID, course.ID).
		First(&local).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		canvasID := course.ID
		local = models.Course{
			ID:             uuid.NewString(),
			UserID:         userID,
			Name:           course.Name,
			Code:           course.CourseCode,
			CurrentGrade:   grade,
			CanvasCourseID: &canvasID,
		}
		if err := s.db.WithContext(ctx).Create(&local).Error; err != nil {
			return nil, fmt.Errorf("failed to create course: %w", err)
		}
		return &local, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up course: %w", err)
	}

	updates := map[string]interface{}{
		"name":          course.Name,
		"code":          course.CourseCode,
		"current_grade": grade,
		"updated_at":    time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(&local).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return &local, nil
}

func (s *Syncer) upsertAssignment(ctx context.Context, courseID string, assignment Assignment) error {
	var score *float64
	var submittedAt *time.Time
	if assignment.Submission != nil {
		score = assignment.Submission.Score
		submittedAt = assignment.Submission.SubmittedAt
	}

	var local models.Assignment
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND canvas_assignment_id = ?", courseID, assignment.ID).
		First(&local).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		canvasID := assignment.ID
		local = models.Assignment{
			ID:                 uuid.NewString(),
			CourseID:           courseID,
			Name:               assignment.Name,
			Score:              score,
			MaxScore:           assignment.PointsPossible,
			DueAt:              assignment.DueAt,
			SubmittedAt:        submittedAt,
			CanvasAssignmentID: &canvasID,
		}
		if err := s.db.WithContext(ctx).Create(&local).Error; err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up assignment: %w", err)
	}

	updates := map[string]interface{}{
		"name":         assignment.Name,
		"score":        score,
		"max_score":    assignment.PointsPossible,
		"due_at":       assignment.DueAt,
		"submitted_at": submittedAt,
		"updated_at":   time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(&local).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	return nil
}
