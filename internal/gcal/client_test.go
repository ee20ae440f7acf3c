package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func calendarEnv(t *testing.T, endpoint string) (*gorm.DB, *Client) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.OAuthToken{}))

	registry := oauth.NewRegistry(&config.Config{
		ServerBase:      "https://api.studyhub.test",
		AllowPrivateIPs: true,
		OAuth: config.OAuthConfig{
			Google: config.GoogleConfig{
				ClientID:      "id",
				ClientSecret:  "secret",
				AuthEndpoint:  config.DefaultGoogleAuthEndpoint,
				TokenEndpoint: config.DefaultGoogleTokenEndpoint,
				Scope:         config.DefaultGoogleScope,
			},
		},
	})
	st := store.New(db)
	tokens := store.NewTokenSource(st, oauth.NewExchanger())

	return db, NewClientWithEndpoint(registry, tokens, endpoint)
}

func storeGoogleToken(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()

	expires := time.Now().Add(time.Hour)
	require.NoError(t, store.New(db).UpsertToken(context.Background(), &models.OAuthToken{
		UserID:      userID,
		Provider:    oauth.KeyGoogle,
		AccessToken: "at-google",
		ExpiresAt:   &expires,
		TokenType:   "Bearer",
	}))
}

func TestCreateTaskEvent(t *testing.T) {
	var gotEvent Event
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEvent))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "event-abc", "summary": "Finish essay"}`))
	}))
	defer server.Close()

	db, client := calendarEnv(t, server.URL)
	userID := uuid.NewString()
	storeGoogleToken(t, db, userID)

	due := time.Date(2025, 9, 15, 23, 59, 0, 0, time.UTC)
	description := "Two thousand words on the topic"
	task := &models.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       "Finish essay",
		Description: &description,
		DueAt:       &due,
	}

	eventID, err := client.CreateTaskEvent(context.Background(), userID, task)
	require.NoError(t, err)
	assert.Equal(t, "event-abc", eventID)

	assert.Equal(t, "Bearer at-google", gotAuth)
	assert.Equal(t, "Finish essay", gotEvent.Summary)
	assert.Equal(t, description, gotEvent.Description)
	// The event is a one-hour block ending at the due time.
	assert.Equal(t, due.Add(-time.Hour).Format(time.RFC3339), gotEvent.Start.DateTime)
	assert.Equal(t, due.Format(time.RFC3339), gotEvent.End.DateTime)
}

func TestCreateTaskEventWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("calendar API must not be called without a stored token")
	}))
	defer server.Close()

	_, client := calendarEnv(t, server.URL)

	due := time.Now().Add(24 * time.Hour)
	task := &models.Task{ID: uuid.NewString(), Title: "Untracked", DueAt: &due}

	_, err := client.CreateTaskEvent(context.Background(), uuid.NewString(), task)
	assert.ErrorIs(t, err, store.ErrNotConnected)
}

func TestCreateTaskEventRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	db, client := calendarEnv(t, server.URL)
	userID := uuid.NewString()
	storeGoogleToken(t, db, userID)

	due := time.Now().Add(24 * time.Hour)
	task := &models.Task{ID: uuid.NewString(), UserID: userID, Title: "Revoked", DueAt: &due}

	_, err := client.CreateTaskEvent(context.Background(), userID, task)
	assert.ErrorIs(t, err, store.ErrNotConnected)
}

func TestCreateTaskEventRequiresDueDate(t *testing.T) {
	db, client := calendarEnv(t, "http://unused")
	userID := uuid.NewString()
	storeGoogleToken(t, db, userID)

	task := &models.Task{ID: uuid.NewString(), UserID: userID, Title: "No due date"}
	_, err := client.CreateTaskEvent(context.Background(), userID, task)
	assert.Error(t, err)
}
