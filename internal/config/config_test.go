package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:        8080,
		Environment: "development",
		AppURL:      "https://app.studyhub.test",
		ServerBase:  "https://api.studyhub.test",
		Database:    DatabaseConfig{Type: "postgres", DSN: "postgresql://localhost/studyhub"},
		JWTSecret:   "a-perfectly-reasonable-development-secret",
		CORSOrigins: []string{"https://app.studyhub.test"},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsShortProductionSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsHalfConfiguredProvider(t *testing.T) {
	cfg := validConfig()
	cfg.OAuth.Google.ClientID = "id-without-secret"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.OAuth.Canvas.ClientSecret = "secret-without-id"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.OAuth.Google.ClientID = "id"
	cfg.OAuth.Google.ClientSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnsupportedDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Type = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestProviderConfigured(t *testing.T) {
	assert.False(t, GoogleConfig{}.Configured())
	assert.False(t, GoogleConfig{ClientID: "id"}.Configured())
	assert.True(t, GoogleConfig{ClientID: "id", ClientSecret: "secret"}.Configured())

	assert.False(t, CanvasConfig{}.Configured())
	assert.True(t, CanvasConfig{ClientID: "id", ClientSecret: "secret"}.Configured())
}
