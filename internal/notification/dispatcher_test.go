package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

func dispatcherEnv(t *testing.T) (*gorm.DB, *Dispatcher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}, &models.ReminderRule{}))

	return db, NewDispatcher(db)
}

func webhookRule(t *testing.T, db *gorm.DB, userID, url string, active bool) {
	t.Helper()

	config, err := json.Marshal(map[string]string{"webhook_url": url})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.ReminderRule{
		UserID:    userID,
		Name:      "test hook",
		Type:      "webhook",
		ConfigRaw: string(config),
		Active:    active,
	}).Error)
}

func TestNotifyTaskDueDeliversToActiveRules(t *testing.T) {
	db, dispatcher := dispatcherEnv(t)
	userID := uuid.NewString()

	var mu sync.Mutex
	var payloads []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		payloads = append(payloads, payload)
		mu.Unlock()
	}))
	defer server.Close()

	webhookRule(t, db, userID, server.URL, true)
	webhookRule(t, db, userID, server.URL, false) // inactive, must be skipped

	due := time.Now().Add(time.Hour)
	task := &models.Task{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    "Finish essay",
		Priority: "high",
		DueAt:    &due,
	}

	require.NoError(t, dispatcher.NotifyTaskDue(context.Background(), task))

	require.Len(t, payloads, 1)
	assert.Equal(t, "Finish essay", payloads[0]["task_name"])
	assert.Equal(t, "high", payloads[0]["priority"])
}

func TestNotifyTaskDueReportsFailedChannels(t *testing.T) {
	db, dispatcher := dispatcherEnv(t)
	userID := uuid.NewString()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	webhookRule(t, db, userID, server.URL, true)

	task := &models.Task{ID: uuid.NewString(), UserID: userID, Title: "Doomed", Priority: "low"}
	assert.Error(t, dispatcher.NotifyTaskDue(context.Background(), task))
}

func TestNotifyTaskDueNoRulesIsNoop(t *testing.T) {
	_, dispatcher := dispatcherEnv(t)

	task := &models.Task{ID: uuid.NewString(), UserID: uuid.NewString(), Title: "Quiet"}
	assert.NoError(t, dispatcher.NotifyTaskDue(context.Background(), task))
}

func TestProviderRegistry(t *testing.T) {
	for _, name := range []string{"webhook", "discord", "ntfy"} {
		_, ok := GetProvider(name)
		assert.True(t, ok, name)
	}
	_, ok := GetProvider("smoke-signal")
	assert.False(t, ok)
}

func TestWebhookValidate(t *testing.T) {
	provider := &WebhookProvider{}
	assert.Error(t, provider.Validate(map[string]interface{}{}))
	assert.NoError(t, provider.Validate(map[string]interface{}{"webhook_url": "https://example.com/hook"}))
}

func TestNtfyValidate(t *testing.T) {
	provider := &NtfyProvider{}
	assert.Error(t, provider.Validate(map[string]interface{}{}))
	assert.NoError(t, provider.Validate(map[string]interface{}{"topic": "studyhub-reminders"}))
}

func TestFormatMessage(t *testing.T) {
	out := FormatMessage(&Message{
		Title:    "Task due soon",
		TaskName: "Finish essay",
		DueAt:    "2025-09-15T23:59:00Z",
		Priority: "high",
	})
	assert.Contains(t, out, "Task due soon")
	assert.Contains(t, out, "Finish essay")
	assert.Contains(t, out, "Priority: high")
}
