package oauth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/studyhub-app/studyhub-server/internal/config"
)

// Provider keys. The set is closed; anything else is ErrUnknownProvider.
const (
	KeyGoogle = "google"
	KeyCanvas = "canvas"
)

// Provider describes one configured OAuth provider, bound to all the
// request-specific inputs it needs. A Canvas value cannot be
// constructed without its tenant base URL, so a callback reaching the
// exchange step always has a complete endpoint set.
type Provider interface {
	// Key returns the provider identifier ("google" or "canvas").
	Key() string

	// AuthCodeURL returns the consent-screen URL for the given state.
	AuthCodeURL(state string) string

	// TokenEndpoint returns the code-exchange URL.
	TokenEndpoint() string

	// RedirectURI returns the callback URL registered for this flow. The
	// exchange request must carry this byte-for-byte identical to the
	// value used when building the consent URL.
	RedirectURI() string

	// Credentials returns the client id and secret.
	Credentials() (id, secret string)
}

// GoogleProvider implements Provider for Google's fixed-domain OAuth.
type GoogleProvider struct {
	cfg        config.GoogleConfig
	serverBase string
}

// NewGoogle builds the Google provider from configuration.
func NewGoogle(cfg config.GoogleConfig, serverBase string) (*GoogleProvider, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: google", ErrProviderNotConfigured)
	}
	return &GoogleProvider{cfg: cfg, serverBase: strings.TrimRight(serverBase, "/")}, nil
}

func (g *GoogleProvider) Key() string {
	return KeyGoogle
}

func (g *GoogleProvider) RedirectURI() string {
	return g.serverBase + "/oauth/google/callback"
}

// AuthCodeURL builds the Google consent URL. access_type=offline and
// prompt=consent are required so a refresh token is issued even for a
// user who consented before.
func (g *GoogleProvider) AuthCodeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", g.cfg.ClientID)
	params.Set("redirect_uri", g.RedirectURI())
	params.Set("response_type", "code")
	params.Set("scope", g.cfg.Scope)
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")
	params.Set("state", state)

	return g.cfg.AuthEndpoint + "?" + params.Encode()
}

func (g *GoogleProvider) TokenEndpoint() string {
	return g.cfg.TokenEndpoint
}

func (g *GoogleProvider) Credentials() (string, string) {
	return g.cfg.ClientID, g.cfg.ClientSecret
}

// CanvasProvider implements Provider for a single Canvas tenant. Canvas
// has no fixed domain; every instance lives under a school-specific
// base URL supplied by the end user.
type CanvasProvider struct {
	cfg        config.CanvasConfig
	serverBase string
	base       string
}

// NewCanvas builds a Canvas provider for the given tenant base URL.
// The base is required and validated before any external system is
// contacted: it must be an absolute http(s) URL and pass the
// server-side request guard, since the server will POST to it.
func NewCanvas(cfg config.CanvasConfig, serverBase, rawBase string, guard *BaseURLGuard) (*CanvasProvider, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: canvas", ErrProviderNotConfigured)
	}
	if rawBase == "" {
		return nil, MissingParameter("canvas_base")
	}
	if err := guard.Validate(rawBase); err != nil {
		return nil, fmt.Errorf("invalid canvas_base: %w", err)
	}

	return &CanvasProvider{
		cfg:        cfg,
		serverBase: strings.TrimRight(serverBase, "/"),
		base:       strings.TrimRight(rawBase, "/"),
	}, nil
}

func (c *CanvasProvider) Key() string {
	return KeyCanvas
}

// Base returns the normalized tenant base URL.
func (c *CanvasProvider) Base() string {
	return c.base
}

// RedirectURI carries the tenant base back to the callback as a query
// parameter, since there is no server-side session to remember it.
func (c *CanvasProvider) RedirectURI() string {
	return c.serverBase + "/oauth/canvas/callback?canvas_base=" + url.QueryEscape(c.base)
}

func (c *CanvasProvider) AuthCodeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", c.RedirectURI())
	params.Set("state", state)

	return c.base + "/login/oauth2/auth?" + params.Encode()
}

func (c *CanvasProvider) TokenEndpoint() string {
	return c.base + "/login/oauth2/token"
}

func (c *CanvasProvider) Credentials() (string, string) {
	return c.cfg.ClientID, c.cfg.ClientSecret
}

// Registry resolves request parameters to a concrete Provider.
type Registry struct {
	oauth      config.OAuthConfig
	serverBase string
	guard      *BaseURLGuard
}

// NewRegistry creates a provider registry from application config.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		oauth:      cfg.OAuth,
		serverBase: cfg.ServerBase,
		guard:      NewBaseURLGuard(cfg.AllowPrivateIPs),
	}
}

// Provider resolves a provider key plus request query parameters to a
// Provider. For Canvas the query must carry canvas_base.
func (r *Registry) Provider(key string, query url.Values) (Provider, error) {
	switch key {
	case KeyGoogle:
		return NewGoogle(r.oauth.Google, r.serverBase)
	case KeyCanvas:
		return NewCanvas(r.oauth.Canvas, r.serverBase, query.Get("canvas_base"), r.guard)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, key)
	}
}
