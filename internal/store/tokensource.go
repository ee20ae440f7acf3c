package store

import (
	"context"
	"fmt"
	"time"

	"github.com/studyhub-app/studyhub-server/internal/models"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
)

// TokenSource hands out usable access tokens for provider API calls,
// refreshing through the provider when the stored token has expired
// and a refresh token is available. A token with no known expiry is
// treated as expired, so it is only usable through the refresh path.
type TokenSource struct {
	store     *Store
	exchanger *oauth.Exchanger
}

// NewTokenSource creates a TokenSource.
func NewTokenSource(store *Store, exchanger *oauth.Exchanger) *TokenSource {
	return &TokenSource{store: store, exchanger: exchanger}
}

// AccessToken returns a valid access token for the user against the
// given provider, or ErrNotConnected.
func (ts *TokenSource) AccessToken(ctx context.Context, userID string, p oauth.Provider) (string, error) {
	token, err := ts.store.Token(ctx, userID, p.Key())
	if err != nil {
		return "", err
	}

	if !token.Expired(time.Now()) {
		return token.AccessToken, nil
	}

	if token.RefreshToken == nil {
		return "", ErrNotConnected
	}

	refreshed, err := ts.exchanger.Refresh(ctx, p, *token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh %s token: %w", p.Key(), err)
	}

	token.AccessToken = refreshed.AccessToken
	token.ExpiresAt = refreshed.ExpiresAt(time.Now())
	if refreshed.RefreshToken != "" {
		token.RefreshToken = &refreshed.RefreshToken
	}
	if refreshed.Scope != "" {
		token.Scope = &refreshed.Scope
	}
	token.TokenType = refreshed.TokenType

	if err := ts.store.UpsertToken(ctx, token); err != nil {
		// The refreshed token is still good for this call even if we
		// could not persist it.
		return refreshed.AccessToken, nil
	}

	return refreshed.AccessToken, nil
}

// TokenFromResponse builds the durable token row from an exchange
// response.
func TokenFromResponse(userID, provider string, resp *oauth.TokenResponse, now time.Time) *models.OAuthToken {
	token := &models.OAuthToken{
		UserID:      userID,
		Provider:    provider,
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt(now),
		TokenType:   resp.TokenType,
	}
	if resp.RefreshToken != "" {
		token.RefreshToken = &resp.RefreshToken
	}
	if resp.Scope != "" {
		token.Scope = &resp.Scope
	}
	return token
}
