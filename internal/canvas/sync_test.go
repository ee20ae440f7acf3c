package canvas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studyhub-app/studyhub-server/internal/config"
	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
)

// fakeTenant serves the subset of the Canvas API the syncer reads.
func fakeTenant(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/courses", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-canvas" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "active", r.URL.Query().Get("enrollment_state"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 101, "name": "Algorithms", "course_code": "CS301",
			 "enrollments": [{"type": "student", "computed_current_score": 91.5}]},
			{"id": 102, "name": "Linear Algebra", "course_code": "MATH220",
			 "enrollments": [{"type": "student", "computed_current_score": 84.0}]}
		]`))
	})
	mux.HandleFunc("/api/v1/courses/101/assignments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 9001, "name": "Problem Set 1", "points_possible": 100,
			 "due_at": "2025-09-15T23:59:00Z",
			 "submission": {"score": 95, "submitted_at": "2025-09-14T10:00:00Z"}},
			{"id": 9002, "name": "Problem Set 2", "points_possible": 100,
			 "due_at": "2025-09-29T23:59:00Z", "submission": null}
		]`))
	})
	mux.HandleFunc("/api/v1/courses/102/assignments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func syncEnv(t *testing.T, tenantURL string) (*gorm.DB, *Syncer, *models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.OAuthToken{}, &models.Course{}, &models.Assignment{},
	))

	registry := oauth.NewRegistry(&config.Config{
		ServerBase:      "https://api.studyhub.test",
		AllowPrivateIPs: true,
		OAuth: config.OAuthConfig{
			Canvas: config.CanvasConfig{ClientID: "id", ClientSecret: "secret"},
		},
	})
	st := store.New(db)
	tokens := store.NewTokenSource(st, oauth.NewExchanger())

	user := &models.User{
		ID:       uuid.NewString(),
		Username: "tester",
		Email:    "tester@example.com",
		Password: "hashed",
		Active:   true,
	}
	if tenantURL != "" {
		user.CanvasBaseURL = &tenantURL
	}
	require.NoError(t, db.Create(user).Error)

	return db, NewSyncer(db, registry, tokens), user
}

func storeCanvasToken(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()

	expires := time.Now().Add(time.Hour)
	require.NoError(t, store.New(db).UpsertToken(context.Background(), &models.OAuthToken{
		UserID:      userID,
		Provider:    oauth.KeyCanvas,
		AccessToken: "at-canvas",
		ExpiresAt:   &expires,
		TokenType:   "Bearer",
	}))
}

func TestSyncImportsCoursesAndAssignments(t *testing.T) {
	tenant := fakeTenant(t)
	db, syncer, user := syncEnv(t, tenant.URL)
	storeCanvasToken(t, db, user.ID)

	result, err := syncer.Sync(context.Background(), user)
	require.NoError(t, err)

	// Course 102's assignment listing fails, which skips its
	// assignments but not the course itself.
	assert.Equal(t, 2, result.Courses)
	assert.Equal(t, 2, result.Assignments)

	var course models.Course
	require.NoError(t, db.Where("user_id = ? AND canvas_course_id = ?", user.ID, 101).First(&course).Error)
	assert.Equal(t, "Algorithms", course.Name)
	assert.Equal(t, "CS301", course.Code)
	require.NotNil(t, course.CurrentGrade)
	assert.Equal(t, 91.5, *course.CurrentGrade)

	var graded models.Assignment
	require.NoError(t, db.Where("course_id = ? AND canvas_assignment_id = ?", course.ID, 9001).First(&graded).Error)
	require.NotNil(t, graded.Score)
	assert.Equal(t, 95.0, *graded.Score)
	require.NotNil(t, graded.SubmittedAt)

	var ungraded models.Assignment
	require.NoError(t, db.Where("course_id = ? AND canvas_assignment_id = ?", course.ID, 9002).First(&ungraded).Error)
	assert.Nil(t, ungraded.Score)
}

func TestSyncIsIdempotent(t *testing.T) {
	tenant := fakeTenant(t)
	db, syncer, user := syncEnv(t, tenant.URL)
	storeCanvasToken(t, db, user.ID)

	_, err := syncer.Sync(context.Background(), user)
	require.NoError(t, err)
	_, err = syncer.Sync(context.Background(), user)
	require.NoError(t, err)

	var courseCount, assignmentCount int64
	require.NoError(t, db.Model(&models.Course{}).Where("user_id = ?", user.ID).Count(&courseCount).Error)
	require.NoError(t, db.Model(&models.Assignment{}).Count(&assignmentCount).Error)
	assert.Equal(t, int64(2), courseCount)
	assert.Equal(t, int64(2), assignmentCount)
}

func TestSyncWithoutSavedBase(t *testing.T) {
	db, syncer, user := syncEnv(t, "")
	storeCanvasToken(t, db, user.ID)

	_, err := syncer.Sync(context.Background(), user)
	assert.ErrorIs(t, err, store.ErrNotConnected)
}

func TestSyncWithoutToken(t *testing.T) {
	tenant := fakeTenant(t)
	_, syncer, user := syncEnv(t, tenant.URL)

	// Flag manipulation without a token row must not pass: the syncer
	// reads the token store, not the connection flag.
	user.CanvasConnected = true

	_, err := syncer.Sync(context.Background(), user)
	assert.ErrorIs(t, err, store.ErrNotConnected)
}

func TestSyncRejectedToken(t *testing.T) {
	tenant := fakeTenant(t)
	db, syncer, user := syncEnv(t, tenant.URL)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, store.New(db).UpsertToken(context.Background(), &models.OAuthToken{
		UserID:      user.ID,
		Provider:    oauth.KeyCanvas,
		AccessToken: "at-revoked",
		ExpiresAt:   &expires,
		TokenType:   "Bearer",
	}))

	_, err := syncer.Sync(context.Background(), user)
	assert.ErrorIs(t, err, store.ErrNotConnected)
}

func TestClientSendsAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if strings.Contains(r.URL.Path, "assignments") {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "at-123")
	_, err := client.ActiveCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer at-123", gotAuth)
}
