package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub-app/studyhub-server/internal/config"
)

// canvasAgainst builds a Canvas provider whose tenant base is the given
// test server, so the token exchange hits the test handler.
func canvasAgainst(t *testing.T, server *httptest.Server) Provider {
	t.Helper()

	guard := NewBaseURLGuard(true)
	provider, err := NewCanvas(config.CanvasConfig{
		ClientID:     "canvas-client-id",
		ClientSecret: "canvas-client-secret",
	}, "https://api.studyhub.test", server.URL, guard)
	require.NoError(t, err)

	return provider
}

func TestExchangeSuccess(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-123",
			"refresh_token": "rt-456",
			"expires_in": 3600,
			"token_type": "Bearer",
			"scope": "url:GET|/api/v1/courses"
		}`))
	}))
	defer server.Close()

	provider := canvasAgainst(t, server)
	exchanger := NewExchanger()

	resp, err := exchanger.Exchange(context.Background(), provider, "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "at-123", resp.AccessToken)
	assert.Equal(t, "rt-456", resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "auth-code", gotForm.Get("code"))
	assert.Equal(t, "canvas-client-id", gotForm.Get("client_id"))
	assert.Equal(t, "canvas-client-secret", gotForm.Get("client_secret"))
	// The exchange must present the identical redirect_uri used for the
	// consent URL, tenant base included.
	assert.Equal(t, provider.RedirectURI(), gotForm.Get("redirect_uri"))
}

func TestExchangeErrorFieldOnHTTP200(t *testing.T) {
	// Some providers report failure in the body with a 200 status. The
	// error field decides, not the status code.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "expired code"}`))
	}))
	defer server.Close()

	exchanger := NewExchanger()
	_, err := exchanger.Exchange(context.Background(), canvasAgainst(t, server), "stale-code")
	require.Error(t, err)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, "canvas", exchangeErr.Provider)
	assert.Equal(t, "invalid_grant", exchangeErr.Code)
}

func TestExchangeNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	exchanger := NewExchanger()
	_, err := exchanger.Exchange(context.Background(), canvasAgainst(t, server), "code")

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Empty(t, exchangeErr.Code)
}

func TestExchangeMissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type": "Bearer"}`))
	}))
	defer server.Close()

	exchanger := NewExchanger()
	_, err := exchanger.Exchange(context.Background(), canvasAgainst(t, server), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token")
}

func TestExchangeDefaultsTokenType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "at-123"}`))
	}))
	defer server.Close()

	exchanger := NewExchanger()
	resp, err := exchanger.Exchange(context.Background(), canvasAgainst(t, server), "code")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestRefreshGrant(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "at-new", "expires_in": 3600}`))
	}))
	defer server.Close()

	exchanger := NewExchanger()
	resp, err := exchanger.Refresh(context.Background(), canvasAgainst(t, server), "rt-456")
	require.NoError(t, err)

	assert.Equal(t, "at-new", resp.AccessToken)
	assert.Equal(t, "refresh_token", gotForm.Get("grant_type"))
	assert.Equal(t, "rt-456", gotForm.Get("refresh_token"))
}

func TestTokenResponseExpiresAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	withExpiry := &TokenResponse{ExpiresIn: 3600}
	require.NotNil(t, withExpiry.ExpiresAt(now))
	assert.Equal(t, now.Add(time.Hour), *withExpiry.ExpiresAt(now))

	noExpiry := &TokenResponse{}
	assert.Nil(t, noExpiry.ExpiresAt(now))
}
