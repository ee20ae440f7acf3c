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

// WebhookProvider sends webhook reminders
type WebhookProvider struct{}

func init() {
	RegisterProvider(&WebhookProvider{})
}

func (w *WebhookProvider) Name() string {
	return "webhook"
}

func (w *WebhookProvider) Send(ctx context.Context, rule *models.ReminderRule, message *Message) error {
	url, _ := rule.Config["webhook_url"].(string)
	method, _ := rule.Config["method"].(string)
	contentType, _ := rule.Config["content_type"].(string)
	customHeaders, _ := rule.Config["headers"].(map[string]interface{})

	if url == "" {
		return fmt.Errorf("webhook_url is required")
	}

	if method == "" {
		method = "POST"
	}

	if contentType == "" {
		contentType = "application/json"
	}

	payload := map[string]interface{}{
		"title":     message.Title,
		"body":      message.Body,
		"task_name": message.TaskName,
		"due_at":    message.DueAt,
		"priority":  message.Priority,
		"time":      message.Time,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "StudyHub/1.0")

	if customHeaders != nil {
		for key, value := range customHeaders {
			if strValue, ok := value.(string); ok {
				req.Header.Set(key, strValue)
			}
		}
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (w *WebhookProvider) Validate(config map[string]interface{}) error {
	url, ok := config["webhook_url"].(string)
	if !ok || url == "" {
		return fmt.Errorf("webhook_url is required")
	}

	return nil
}
