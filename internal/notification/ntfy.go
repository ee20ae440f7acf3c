package notification

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

// NtfyProvider sends Ntfy reminders (self-hosted or ntfy.sh)
type NtfyProvider struct{}

func init() {
	RegisterProvider(&NtfyProvider{})
}

func (n *NtfyProvider) Name() string {
	return "ntfy"
}

func (n *NtfyProvider) Send(ctx context.Context, rule *models.ReminderRule, message *Message) error {
	serverURL, _ := rule.Config["server_url"].(string)
	topic, _ := rule.Config["topic"].(string)
	priority, _ := rule.Config["priority"].(float64)
	username, _ := rule.Config["username"].(string)
	password, _ := rule.Config["password"].(string)

	// Default server to ntfy.sh
	if serverURL == "" {
		serverURL = "https://ntfy.sh"
	}

	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	// Default priority based on task priority
	if priority == 0 {
		if message.Priority == "high" {
			priority = 4
		} else {
			priority = 3
		}
	}

	messageText := FormatMessage(message)

	url := fmt.Sprintf("%s/%s", serverURL, topic)

	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(messageText))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Title", message.Title)
	req.Header.Set("Priority", fmt.Sprintf("%d", int(priority)))
	req.Header.Set("Tags", getTagsForPriority(message.Priority))

	if username != "" && password != "" {
		req.SetBasicAuth(username, password)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Ntfy server returned status %d", resp.StatusCode)
	}

	return nil
}

func (n *NtfyProvider) Validate(config map[string]interface{}) error {
	topic, ok := config["topic"].(string)
	if !ok || topic == "" {
		return fmt.Errorf("topic is required")
	}

	return nil
}

// getTagsForPriority returns ntfy emoji tags for a task priority
func getTagsForPriority(priority string) string {
	switch priority {
	case "high":
		return "rotating_light"
	case "medium":
		return "warning"
	default:
		return "memo"
	}
}
