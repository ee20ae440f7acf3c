package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

// Dispatcher fans out task-due reminders to a user's configured
// channels. Delivery is best-effort per channel; one failing channel
// does not block the others.
type Dispatcher struct {
	db *gorm.DB
}

// NewDispatcher creates a new reminder dispatcher
func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{db: db}
}

// NotifyTaskDue sends a due-soon reminder for a task to every active
// channel the owning user has configured.
func (d *Dispatcher) NotifyTaskDue(ctx context.Context, task *models.Task) error {
	msg := &Message{
		Title:    "Task due soon",
		TaskName: task.Title,
		Priority: task.Priority,
		Time:     time.Now().Format(time.RFC3339),
	}
	if task.Description != nil {
		msg.Body = *task.Description
	}
	if task.DueAt != nil {
		msg.DueAt = task.DueAt.Format(time.RFC3339)
	}

	return d.sendToUserChannels(ctx, task.UserID, msg)
}

// sendToUserChannels delivers a message to all of a user's active rules
func (d *Dispatcher) sendToUserChannels(ctx context.Context, userID string, msg *Message) error {
	rules, err := d.getUserRules(userID)
	if err != nil {
		return fmt.Errorf("failed to get reminder rules: %w", err)
	}

	if len(rules) == 0 {
		return nil
	}

	// Send to all channels concurrently
	errCh := make(chan error, len(rules))
	for _, rule := range rules {
		go func(r *models.ReminderRule) {
			if err := d.send(ctx, r, msg); err != nil {
				log.Printf("Failed to send reminder via %s (%s): %v", r.Type, r.Name, err)
				errCh <- err
			} else {
				errCh <- nil
			}
		}(rule)
	}

	var errors []error
	for i := 0; i < len(rules); i++ {
		if err := <-errCh; err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("failed to send %d/%d reminders", len(errors), len(rules))
	}

	return nil
}

// send delivers a message using the rule's channel provider
func (d *Dispatcher) send(ctx context.Context, rule *models.ReminderRule, msg *Message) error {
	if !rule.Active {
		return nil
	}

	provider, ok := GetProvider(rule.Type)
	if !ok {
		return fmt.Errorf("unknown reminder channel: %s", rule.Type)
	}

	return provider.Send(ctx, rule, msg)
}

// getUserRules gets all active reminder rules for a user
func (d *Dispatcher) getUserRules(userID string) ([]*models.ReminderRule, error) {
	var rules []*models.ReminderRule
	err := d.db.Where("user_id = ? AND active = true", userID).Find(&rules).Error
	if err != nil {
		return nil, err
	}

	// Parse config JSON for each rule
	for _, rule := range rules {
		if rule.ConfigRaw != "" {
			var config map[string]interface{}
			if err := json.Unmarshal([]byte(rule.ConfigRaw), &config); err != nil {
				log.Printf("Failed to parse reminder config for %s: %v", rule.Name, err)
				continue
			}
			rule.Config = config
		}
	}

	return rules, nil
}

// TestRule sends a test reminder through a single rule
func (d *Dispatcher) TestRule(ctx context.Context, rule *models.ReminderRule) error {
	msg := &Message{
		Title:    "Test Reminder",
		Body:     "This is a test reminder from StudyHub.",
		TaskName: "Test Task",
		Priority: "medium",
		Time:     time.Now().Format(time.RFC3339),
	}

	return d.send(ctx, rule, msg)
}
