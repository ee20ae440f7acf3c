package jobs

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/notification"
)

// Scheduler manages background jobs
type Scheduler struct {
	cron       *cron.Cron
	db         *gorm.DB
	dispatcher *notification.Dispatcher
}

// NewScheduler creates a new job scheduler
func NewScheduler(db *gorm.DB, dispatcher *notification.Dispatcher) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		db:         db,
		dispatcher: dispatcher,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	reminders := NewReminderJob(s.db, s.dispatcher)

	// Check for due tasks every 5 minutes
	s.cron.AddFunc("*/5 * * * *", func() {
		reminders.Run()
	})

	// Prune dead OAuth tokens hourly at minute 10
	s.cron.AddFunc("10 * * * *", func() {
		s.pruneDeadTokens()
	})

	// Apply per-user retention windows daily at 3:14 AM
	s.cron.AddFunc("14 3 * * *", func() {
		log.Println("Running retention cleanup job...")
		s.cleanupExpiredData()
	})

	s.cron.Start()
	log.Println("Job scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Job scheduler stopped")
}

// pruneDeadTokens deletes OAuth token rows that are expired and carry no
// refresh token. The token store already treats them as not connected;
// this just reclaims the rows.
func (s *Scheduler) pruneDeadTokens() {
	query := `
		DELETE FROM oauth_tokens
		WHERE expires_at IS NOT NULL
		AND expires_at < NOW()
		AND refresh_token IS NULL
	`

	result := s.db.Exec(query)
	if result.Error != nil {
		log.Printf("Failed to prune dead OAuth tokens: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Pruned %d dead OAuth tokens", result.RowsAffected)
	}
}

// cleanupExpiredData deletes pomodoro sessions and mood entries older
// than each user's configured retention window. Users without a
// settings row keep everything until one is created.
func (s *Scheduler) cleanupExpiredData() {
	pomodoroQuery := `
		DELETE FROM pomodoro_sessions
		WHERE id IN (
			SELECT p.id FROM pomodoro_sessions p
			JOIN user_settings s ON s.user_id = p.user_id
			WHERE p.started_at < NOW() - (s.pomodoro_retention_days || ' days')::interval
		)
	`
	result := s.db.Exec(pomodoroQuery)
	if result.Error != nil {
		log.Printf("Failed to cleanup old pomodoro sessions: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d old pomodoro sessions", result.RowsAffected)
	}

	moodQuery := `
		DELETE FROM mood_entries
		WHERE id IN (
			SELECT m.id FROM mood_entries m
			JOIN user_settings s ON s.user_id = m.user_id
			WHERE m.entry_date < NOW() - (s.mood_entry_retention_days || ' days')::interval
		)
	`
	result = s.db.Exec(moodQuery)
	if result.Error != nil {
		log.Printf("Failed to cleanup old mood entries: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d old mood entries", result.RowsAffected)
	}
}
