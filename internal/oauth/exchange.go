package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenResponse is the decoded body of a provider token endpoint
// response. Providers signal failure through the error field, often
// alongside a non-2xx status but not always.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExpiresAt converts expires_in to an absolute time. It returns nil
// when the provider did not report an expiry.
func (t *TokenResponse) ExpiresAt(now time.Time) *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	at := now.Add(time.Duration(t.ExpiresIn) * time.Second)
	return &at
}

// Exchanger performs the server-to-server code exchange against a
// provider token endpoint. Calls are single-attempt with no retry; a
// human is waiting on the redirect.
type Exchanger struct {
	httpClient *http.Client
}

// NewExchanger creates an Exchanger with a default 30 second client.
func NewExchanger() *Exchanger {
	return &Exchanger{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewExchangerWithClient creates an Exchanger using the given client.
func NewExchangerWithClient(client *http.Client) *Exchanger {
	return &Exchanger{httpClient: client}
}

// Exchange trades an authorization code for tokens.
func (e *Exchanger) Exchange(ctx context.Context, p Provider, code string) (*TokenResponse, error) {
	clientID, clientSecret := p.Credentials()

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("redirect_uri", p.RedirectURI())

	return e.post(ctx, p, data)
}

// Refresh trades a refresh token for a new access token.
func (e *Exchanger) Refresh(ctx context.Context, p Provider, refreshToken string) (*TokenResponse, error) {
	clientID, clientSecret := p.Credentials()

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)

	return e.post(ctx, p, data)
}

func (e *Exchanger) post(ctx context.Context, p Provider, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", p.TokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &ExchangeError{Provider: p.Key(), Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Provider: p.Key(), Err: fmt.Errorf("token request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{Provider: p.Key(), Err: fmt.Errorf("failed to read token response: %w", err)}
	}

	var result TokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ExchangeError{Provider: p.Key(), Err: fmt.Errorf("failed to decode token response (status %d): %w", resp.StatusCode, err)}
	}

	if result.Error != "" {
		return nil, &ExchangeError{Provider: p.Key(), Code: result.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExchangeError{Provider: p.Key(), Err: fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))}
	}

	if result.AccessToken == "" {
		return nil, &ExchangeError{Provider: p.Key(), Err: fmt.Errorf("token response missing access_token")}
	}

	if result.TokenType == "" {
		result.TokenType = "Bearer"
	}

	return &result, nil
}
