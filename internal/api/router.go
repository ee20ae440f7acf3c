package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/canvas"
	"github.com/studyhub-app/studyhub-server/internal/config"
	"github.com/studyhub-app/studyhub-server/internal/gcal"
	"github.com/studyhub-app/studyhub-server/internal/notification"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
	"github.com/studyhub-app/studyhub-server/internal/websocket"
)

// Deps bundles everything the HTTP layer needs
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Hub        *websocket.Hub
	Registry   *oauth.Registry
	Exchanger  *oauth.Exchanger
	Store      *store.Store
	Syncer     *canvas.Syncer
	Calendar   *gcal.Client
	Dispatcher *notification.Dispatcher
}

// NewRouter creates a new HTTP router
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(SecurityHeadersMiddleware(d.Config))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Login and signup are brute-forceable, so they get their own limiter
	authLimiter := NewRateLimiter(rate.Limit(1), 5)
	authLimiter.CleanupOldLimiters()

	// OAuth redirect flow. The provider calls the callback directly, so
	// both endpoints live outside the authenticated /api group.
	r.Route("/oauth/{provider}", func(r chi.Router) {
		r.Get("/start", HandleOAuthStart(d.Registry))
		r.Get("/callback", HandleOAuthCallback(d.Config, d.Registry, d.Exchanger, d.Store, d.Hub))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(authLimiter))
			r.Post("/auth/register", HandleRegister(d.DB, d.Config))
			r.Post("/auth/login", HandleLogin(d.DB, d.Config))
		})
		r.Post("/auth/logout", HandleLogout())

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Config.JWTSecret, d.DB))

			// User routes
			r.Get("/user/me", HandleGetCurrentUser())
			r.Get("/user/settings", HandleGetUserSettings(d.DB))
			r.Put("/user/settings", HandleUpdateUserSettings(d.DB))

			// Task routes
			r.Get("/tasks", HandleGetTasks(d.DB))
			r.Post("/tasks", HandleCreateTask(d.DB))
			r.Put("/tasks/{id}", HandleUpdateTask(d.DB))
			r.Post("/tasks/{id}/toggle", HandleToggleTask(d.DB))
			r.Post("/tasks/{id}/calendar", HandlePushTaskToCalendar(d.DB, d.Calendar))
			r.Delete("/tasks/{id}", HandleDeleteTask(d.DB))

			// Course routes
			r.Get("/courses", HandleGetCourses(d.DB))
			r.Post("/courses", HandleCreateCourse(d.DB))
			r.Put("/courses/{id}", HandleUpdateCourse(d.DB))
			r.Delete("/courses/{id}", HandleDeleteCourse(d.DB))
			r.Post("/courses/{id}/assignments", HandleCreateAssignment(d.DB))
			r.Delete("/courses/{id}/assignments/{assignmentID}", HandleDeleteAssignment(d.DB))

			// Pomodoro routes
			r.Get("/pomodoro/sessions", HandleGetPomodoroSessions(d.DB))
			r.Post("/pomodoro/sessions", HandleStartPomodoro(d.DB))
			r.Post("/pomodoro/sessions/{id}/complete", HandleCompletePomodoro(d.DB, d.Hub))
			r.Get("/pomodoro/stats", HandleGetPomodoroStats(d.DB))

			// Wellness routes
			r.Get("/mood", HandleGetMoodEntries(d.DB))
			r.Post("/mood", HandleLogMood(d.DB))
			r.Get("/mood/summary", HandleGetMoodSummary(d.DB))
			r.Delete("/mood/{id}", HandleDeleteMoodEntry(d.DB))

			// Integration routes
			r.Get("/integrations", HandleGetIntegrations(d.Store))
			r.Delete("/integrations/{provider}", HandleDisconnectIntegration(d.Store))
			r.Post("/integrations/canvas/sync", HandleCanvasSync(d.Syncer))

			// Reminder channel routes
			r.Get("/reminders", HandleGetReminderRules(d.DB))
			r.Post("/reminders", HandleCreateReminderRule(d.DB))
			r.Get("/reminders/types", HandleGetReminderChannelTypes())
			r.Put("/reminders/{id}", HandleUpdateReminderRule(d.DB))
			r.Delete("/reminders/{id}", HandleDeleteReminderRule(d.DB))
			r.Post("/reminders/{id}/test", HandleTestReminderRule(d.DB, d.Dispatcher))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", d.Hub.HandleWebSocket)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
