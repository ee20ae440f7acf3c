package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
)

// ErrNotConnected is returned when a usable token does not exist for a
// (user, provider) pair, regardless of what the connection flag says.
var ErrNotConnected = errors.New("provider is not connected")

// Store persists OAuth credentials and the denormalized per-user
// connection flags. The token row is the authoritative record; the
// flags are a display cache that may lag behind it.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertToken inserts or overwrites the token row for the token's
// (user, provider) key. Retried or repeated links are last-write-wins.
func (s *Store) UpsertToken(ctx context.Context, token *models.OAuthToken) error {
	token.UpdatedAt = time.Now()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "expires_at", "scope", "token_type", "updated_at",
		}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %s token: %w", token.Provider, err)
	}

	return nil
}

// MarkConnected sets the user's {provider}_connected flag, and for
// Canvas also remembers the tenant base URL so the client never has to
// re-prompt for it. The write is best-effort: the caller may ignore
// the returned error because the token row is already durable.
func (s *Store) MarkConnected(ctx context.Context, userID, provider string, canvasBase string) error {
	updates := map[string]interface{}{}

	switch provider {
	case oauth.KeyGoogle:
		updates["google_connected"] = true
	case oauth.KeyCanvas:
		updates["canvas_connected"] = true
		if canvasBase != "" {
			updates["canvas_base_url"] = canvasBase
		}
	default:
		return fmt.Errorf("%w: %s", oauth.ErrUnknownProvider, provider)
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update connection flags for user %s: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update connection flags: user %s not found", userID)
	}

	return nil
}

// ConnectionFlags returns the user's denormalized link status for
// client hydration. Advisory only; see Token for the authoritative
// read.
func (s *Store) ConnectionFlags(ctx context.Context, userID string) (models.ConnectionFlags, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("google_connected", "canvas_connected", "canvas_base_url").
		Where("id = ?", userID).First(&user).Error
	if err != nil {
		return models.ConnectionFlags{}, fmt.Errorf("failed to load connection flags: %w", err)
	}

	return user.Flags(), nil
}

// Token returns the stored token for (user, provider). A missing row,
// or an expired token with no refresh token, reports ErrNotConnected.
func (s *Store) Token(ctx context.Context, userID, provider string) (*models.OAuthToken, error) {
	var token models.OAuthToken
	err := s.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s token: %w", provider, err)
	}

	if token.Expired(time.Now()) && token.RefreshToken == nil {
		return nil, ErrNotConnected
	}

	return &token, nil
}

// Disconnect deletes the token row and clears the connection flag for
// (user, provider).
func (s *Store) Disconnect(ctx context.Context, userID, provider string) error {
	err := s.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&models.OAuthToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s token: %w", provider, err)
	}

	updates := map[string]interface{}{}
	switch provider {
	case oauth.KeyGoogle:
		updates["google_connected"] = false
	case oauth.KeyCanvas:
		updates["canvas_connected"] = false
	default:
		return fmt.Errorf("%w: %s", oauth.ErrUnknownProvider, provider)
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to clear connection flag: %w", err)
	}

	return nil
}
