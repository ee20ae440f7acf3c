package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

// DiscordProvider sends Discord webhook reminders
type DiscordProvider struct{}

func init() {
	RegisterProvider(&DiscordProvider{})
}

func (d *DiscordProvider) Name() string {
	return "discord"
}

func (d *DiscordProvider) Send(ctx context.Context, rule *models.ReminderRule, message *Message) error {
	webhookURL, _ := rule.Config["webhook_url"].(string)
	username, _ := rule.Config["username"].(string)

	if webhookURL == "" {
		return fmt.Errorf("webhook_url is required")
	}

	if username == "" {
		username = "StudyHub"
	}

	// Color by task priority
	var color int
	switch message.Priority {
	case "high":
		color = 0xFF0000 // Red
	case "medium":
		color = 0xFFA500 // Orange
	case "low":
		color = 0x00FF00 // Green
	default:
		color = 0x808080 // Gray
	}

	embed := map[string]interface{}{
		"title":       message.Title,
		"description": message.Body,
		"color":       color,
		"timestamp":   message.Time,
		"fields": []map[string]interface{}{
			{
				"name":   "Task",
				"value":  message.TaskName,
				"inline": true,
			},
			{
				"name":   "Priority",
				"value":  message.Priority,
				"inline": true,
			},
		},
	}

	if message.DueAt != "" {
		embed["fields"] = append(embed["fields"].([]map[string]interface{}), map[string]interface{}{
			"name":   "Due",
			"value":  message.DueAt,
			"inline": false,
		})
	}

	payload := map[string]interface{}{
		"username": username,
		"embeds":   []interface{}{embed},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (d *DiscordProvider) Validate(config map[string]interface{}) error {
	webhookURL, ok := config["webhook_url"].(string)
	if !ok || webhookURL == "" {
		return fmt.Errorf("webhook_url is required")
	}

	return nil
}
