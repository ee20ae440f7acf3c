package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Course is a Canvas course as returned by the courses API.
type Course struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	CourseCode  string       `json:"course_code"`
	Enrollments []Enrollment `json:"enrollments"`
}

// Enrollment carries the computed scores for one enrollment.
type Enrollment struct {
	Type                 string   `json:"type"`
	ComputedCurrentScore *float64 `json:"computed_current_score"`
	ComputedFinalScore   *float64 `json:"computed_final_score"`
}

// Assignment is a Canvas assignment with the user's submission.
type Assignment struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	PointsPossible float64     `json:"points_possible"`
	DueAt          *time.Time  `json:"due_at"`
	Submission     *Submission `json:"submission"`
}

// Submission is the user's submission for an assignment.
type Submission struct {
	Score       *float64   `json:"score"`
	Grade       *string    `json:"grade"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// Client talks to one Canvas tenant on behalf of one user. The access
// token comes from the token store, never from the connection flags.
type Client struct {
	base        string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a Canvas API client for a tenant base URL.
func NewClient(base, accessToken string) *Client {
	return &Client{
		base:        base,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ErrUnauthorized indicates the Canvas token was rejected.
var ErrUnauthorized = fmt.Errorf("canvas rejected the access token")

// ActiveCourses lists the user's active courses with total scores.
func (c *Client) ActiveCourses(ctx context.Context) ([]Course, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Add("include[]", "total_scores")

	var courses []Course
	if err := c.get(ctx, "/api/v1/courses", query, &courses); err != nil {
		return nil, err
	}

	return courses, nil
}

// CourseAssignments lists a course's assignments with submissions.
func (c *Client) CourseAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	query := url.Values{}
	query.Add("include[]", "submission")
	query.Set("per_page", "50")

	var assignments []Assignment
	path := fmt.Sprintf("/api/v1/courses/%d/assignments", courseID)
	if err := c.get(ctx, path, query, &assignments); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create Canvas request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Canvas request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Canvas API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Canvas response: %w", err)
	}

	return nil
}
