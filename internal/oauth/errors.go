package oauth

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned for a provider key outside {google, canvas}.
var ErrUnknownProvider = errors.New("unknown OAuth provider")

// ErrProviderNotConfigured is returned when a provider's client
// credentials are absent from the running configuration. This is a
// server misconfiguration, not a user error, and is surfaced as a 500
// rather than an error redirect.
var ErrProviderNotConfigured = errors.New("OAuth provider not configured")

// ErrMissingParameter is returned when a required request parameter is
// absent. It always fails before any external call is made.
var ErrMissingParameter = errors.New("missing required parameter")

// MissingParameter wraps ErrMissingParameter with the parameter name.
func MissingParameter(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParameter, name)
}

// ExchangeError reports a failed token exchange: either the provider's
// token endpoint returned an error payload, or the call itself failed.
type ExchangeError struct {
	Provider string
	Code     string // provider error code, e.g. "invalid_grant"; empty for transport failures
	Err      error  // underlying transport/decode error, if any
}

func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s token exchange failed: %s", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s token exchange failed: %v", e.Provider, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
