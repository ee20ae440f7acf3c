package jobs

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/notification"
)

// ReminderJob finds tasks entering their owner's reminder window and
// dispatches a due-soon notification for each, at most once per task.
type ReminderJob struct {
	db         *gorm.DB
	dispatcher *notification.Dispatcher
}

// NewReminderJob creates a reminder job
func NewReminderJob(db *gorm.DB, dispatcher *notification.Dispatcher) *ReminderJob {
	return &ReminderJob{db: db, dispatcher: dispatcher}
}

// Run performs one scan. A task qualifies when it is incomplete, has a
// due date within the owner's lead window, and has not been reminded
// about yet. ReminderSentAt is set before dispatch so a crashing
// delivery cannot double-send on the next scan.
func (j *ReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()

	var tasks []models.Task
	err := j.db.WithContext(ctx).Raw(`
		SELECT t.* FROM tasks t
		JOIN user_settings s ON s.user_id = t.user_id
		WHERE t.completed = false
		AND t.reminder_sent_at IS NULL
		AND t.due_at IS NOT NULL
		AND t.due_at > ?
		AND t.due_at <= ? + (s.reminder_lead_minutes || ' minutes')::interval
	`, now, now).Scan(&tasks).Error
	if err != nil {
		log.Printf("Reminder job: failed to find due tasks: %v", err)
		return
	}

	for i := range tasks {
		task := &tasks[i]

		err := j.db.WithContext(ctx).Model(&models.Task{}).
			Where("id = ? AND reminder_sent_at IS NULL", task.ID).
			Update("reminder_sent_at", now).Error
		if err != nil {
			log.Printf("Reminder job: failed to mark task %s: %v", task.ID, err)
			continue
		}

		if err := j.dispatcher.NotifyTaskDue(ctx, task); err != nil {
			log.Printf("Reminder job: delivery failed for task %s: %v", task.ID, err)
		}
	}

	if len(tasks) > 0 {
		log.Printf("Reminder job: dispatched %d task reminders", len(tasks))
	}
}
