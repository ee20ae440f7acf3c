package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/studyhub-app/studyhub-server/internal/models"
)

// Provider defines the interface for all reminder delivery channels
type Provider interface {
	// Name returns the unique identifier for this provider
	Name() string

	// Send delivers a reminder through the configured channel
	Send(ctx context.Context, rule *models.ReminderRule, message *Message) error

	// Validate validates the channel configuration
	Validate(config map[string]interface{}) error
}

// Message represents a reminder to be delivered
type Message struct {
	Title    string
	Body     string
	TaskName string
	DueAt    string
	Priority string // low, medium, high
	Time     string
}

// Registry holds all registered reminder providers
var (
	providers = make(map[string]Provider)
	mu        sync.RWMutex
)

// RegisterProvider registers a new reminder provider
func RegisterProvider(provider Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[provider.Name()] = provider
}

// GetProvider returns a provider by name
func GetProvider(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	provider, ok := providers[name]
	return provider, ok
}

// GetAllProviders returns all registered providers
func GetAllProviders() map[string]Provider {
	mu.RLock()
	defer mu.RUnlock()
	result := make(map[string]Provider)
	for k, v := range providers {
		result[k] = v
	}
	return result
}

// FormatMessage formats a reminder message with common details
func FormatMessage(msg *Message) string {
	body := fmt.Sprintf("%s\n\n", msg.Title)
	if msg.Body != "" {
		body += msg.Body + "\n\n"
	}
	body += fmt.Sprintf("Task: %s\n", msg.TaskName)

	if msg.DueAt != "" {
		body += fmt.Sprintf("Due: %s\n", msg.DueAt)
	}
	if msg.Priority != "" {
		body += fmt.Sprintf("Priority: %s\n", msg.Priority)
	}

	return body
}
