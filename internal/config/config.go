package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration. It is built once at startup
// and passed into the components that need it; handlers never read the
// environment directly.
type Config struct {
	Port            int
	Environment     string
	AppURL          string
	ServerBase      string
	Database        DatabaseConfig
	JWTSecret       string
	CORSOrigins     []string
	OAuth           OAuthConfig
	AllowPrivateIPs bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string // postgres
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// OAuthConfig holds the per-provider OAuth client credentials
type OAuthConfig struct {
	Google GoogleConfig
	Canvas CanvasConfig
}

// GoogleConfig holds Google OAuth configuration. The endpoints default
// to Google's fixed URLs and exist as fields so tests can point the
// flow at a local server.
type GoogleConfig struct {
	ClientID      string
	ClientSecret  string
	AuthEndpoint  string
	TokenEndpoint string
	Scope         string
}

// CanvasConfig holds Canvas OAuth configuration. Canvas is
// multi-tenant, so there are no fixed endpoints; the tenant base URL
// is supplied per link attempt.
type CanvasConfig struct {
	ClientID     string
	ClientSecret string
}

const (
	// DefaultGoogleAuthEndpoint is Google's fixed consent screen URL.
	DefaultGoogleAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"
	// DefaultGoogleTokenEndpoint is Google's fixed token exchange URL.
	DefaultGoogleTokenEndpoint = "https://oauth2.googleapis.com/token"
	// DefaultGoogleScope requests calendar access plus basic identity.
	DefaultGoogleScope = "https://www.googleapis.com/auth/calendar.events openid email profile"
)

// Configured reports whether the Google client credentials are set.
func (g GoogleConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Configured reports whether the Canvas client credentials are set.
func (c CanvasConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("ENVIRONMENT", "production")
	appURL := getAppURL()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: env,
		AppURL:      appURL,
		ServerBase:  strings.TrimRight(getEnv("SERVER_BASE", appURL), "/"),
		Database: DatabaseConfig{
			Type:         getEnv("DATABASE_TYPE", "postgres"),
			DSN:          getEnv("DATABASE_DSN", buildPostgresDSN()),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		JWTSecret:   loadJWTSecret(env),
		CORSOrigins: loadCORSOrigins(env),
		OAuth: OAuthConfig{
			Google: GoogleConfig{
				ClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
				ClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
				AuthEndpoint:  getEnv("GOOGLE_AUTH_ENDPOINT", DefaultGoogleAuthEndpoint),
				TokenEndpoint: getEnv("GOOGLE_TOKEN_ENDPOINT", DefaultGoogleTokenEndpoint),
				Scope:         getEnv("GOOGLE_OAUTH_SCOPE", DefaultGoogleScope),
			},
			Canvas: CanvasConfig{
				ClientID:     os.Getenv("CANVAS_CLIENT_ID"),
				ClientSecret: os.Getenv("CANVAS_CLIENT_SECRET"),
			},
		},
		AllowPrivateIPs: getEnvBool("ALLOW_PRIVATE_IPS", false),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "studyhub")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "studyhub")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}

		insecureSecrets := []string{
			"change-this-secret-in-production",
			"change-me-in-production",
			"secret",
			"password",
			"changeme",
		}
		for _, insecure := range insecureSecrets {
			if c.JWTSecret == insecure {
				return fmt.Errorf("JWT_SECRET is set to an insecure default value. Please set a strong random secret")
			}
		}
	}

	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}

	if c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	// A provider with only half its credentials is a deployment mistake,
	// not a disabled provider.
	if (c.OAuth.Google.ClientID == "") != (c.OAuth.Google.ClientSecret == "") {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if (c.OAuth.Canvas.ClientID == "") != (c.OAuth.Canvas.ClientSecret == "") {
		return fmt.Errorf("CANVAS_CLIENT_ID and CANVAS_CLIENT_SECRET must be set together")
	}

	return nil
}

func loadJWTSecret(env string) string {
	secret := os.Getenv("JWT_SECRET")

	// If JWT_SECRET is not set, generate a random one for development
	if secret == "" {
		if env == "production" {
			log.Fatal("FATAL: JWT_SECRET environment variable is required in production")
		}

		log.Println("WARNING: JWT_SECRET not set. Generating random secret for development.")
		log.Println("WARNING: This secret will change on restart. Set JWT_SECRET in production!")
		return generateRandomSecret()
	}

	if len(secret) < 16 {
		log.Fatal("FATAL: JWT_SECRET must be at least 16 characters long")
	}

	return secret
}

func loadCORSOrigins(env string) []string {
	if appURL := getAppURL(); appURL != "" {
		return []string{appURL}
	}

	if env == "development" {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}

	log.Println("WARNING: APP_URL not set. Using default localhost origins.")
	log.Println("WARNING: Set APP_URL environment variable for production deployments.")
	return []string{"http://localhost:3000", "http://localhost:5173"}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func generateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate random secret:", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

func getAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		return ""
	}
	return strings.TrimRight(appURL, "/")
}
