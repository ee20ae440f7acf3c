package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOAuthTokenExpired(t *testing.T) {
	now := time.Now()
	refresh := "rt-1"
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		token   OAuthToken
		expired bool
	}{
		{"future expiry", OAuthToken{ExpiresAt: &future}, false},
		{"past expiry", OAuthToken{ExpiresAt: &past}, true},
		{"past expiry with refresh", OAuthToken{ExpiresAt: &past, RefreshToken: &refresh}, true},
		// No reported expiry: always expired, usable only via refresh.
		{"no expiry no refresh", OAuthToken{}, true},
		{"no expiry with refresh", OAuthToken{RefreshToken: &refresh}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.token.Expired(now))
		})
	}
}

func TestMoodEntryValidate(t *testing.T) {
	valid := MoodEntry{Mood: 3, Energy: 4}
	assert.NoError(t, valid.Validate())

	low := MoodEntry{Mood: 0, Energy: 3}
	assert.Error(t, low.Validate())

	high := MoodEntry{Mood: 3, Energy: 6}
	assert.Error(t, high.Validate())

	tooMuchSleep := 25.0
	sleepy := MoodEntry{Mood: 3, Energy: 3, SleptHrs: &tooMuchSleep}
	assert.Error(t, sleepy.Validate())
}

func TestUserSettingsValidate(t *testing.T) {
	settings := DefaultUserSettings("user-42")
	assert.NoError(t, settings.Validate())

	settings.FocusMinutes = 2
	assert.Error(t, settings.Validate())

	settings = DefaultUserSettings("user-42")
	settings.PomodoroRetentionDays = 10
	assert.Error(t, settings.Validate())
}

func TestUserFlags(t *testing.T) {
	base := "https://canvas.school.edu"
	user := User{GoogleConnected: true, CanvasConnected: true, CanvasBaseURL: &base}

	flags := user.Flags()
	assert.True(t, flags.GoogleConnected)
	assert.True(t, flags.CanvasConnected)
	assert.Equal(t, &base, flags.CanvasBaseURL)
}
