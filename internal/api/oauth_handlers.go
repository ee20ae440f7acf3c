package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studyhub-app/studyhub-server/internal/config"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
	"github.com/studyhub-app/studyhub-server/internal/websocket"
)

// HandleOAuthStart redirects the user to a provider's consent screen.
// state carries the application user id and is echoed back by the
// provider; nothing is written locally at this stage.
func HandleOAuthStart(registry *oauth.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerKey := chi.URLParam(r, "provider")

		state := r.URL.Query().Get("state")
		if state == "" {
			respondError(w, http.StatusBadRequest, "Missing state parameter (user ID)")
			return
		}

		provider, err := registry.Provider(providerKey, r.URL.Query())
		if err != nil {
			switch {
			case errors.Is(err, oauth.ErrProviderNotConfigured):
				// Server misconfiguration, not a user error
				log.Printf("OAuth: %s start rejected: %v", providerKey, err)
				respondError(w, http.StatusInternalServerError, providerKey+" OAuth not configured")
			case errors.Is(err, oauth.ErrUnknownProvider):
				respondError(w, http.StatusBadRequest, "Unsupported OAuth provider")
			default:
				// Missing or invalid canvas_base
				respondError(w, http.StatusBadRequest, err.Error())
			}
			return
		}

		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
	}
}

// HandleOAuthCallback receives the provider's redirect, exchanges the
// authorization code for tokens, persists them, and sends the user
// back to the app with an oauth={provider}_{success|error} flag.
//
// The token upsert is fatal on failure; the connection-flag update is
// not. Once tokens are durably stored the link has succeeded, and a
// stale flag heals the next time the client hydrates from the server.
func HandleOAuthCallback(cfg *config.Config, registry *oauth.Registry, exchanger *oauth.Exchanger, st *store.Store, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerKey := chi.URLParam(r, "provider")

		errorRedirect := func() {
			http.Redirect(w, r, cfg.AppURL+"/?oauth="+providerKey+"_error", http.StatusFound)
		}

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")

		// Without state there is no user to redirect back to, and
		// without code there is nothing to exchange. Reject before any
		// outbound call.
		if code == "" || state == "" {
			log.Printf("OAuth: invalid %s callback - missing code or state", providerKey)
			respondError(w, http.StatusBadRequest, "Missing code or state parameter")
			return
		}

		provider, err := registry.Provider(providerKey, r.URL.Query())
		if err != nil {
			if errors.Is(err, oauth.ErrUnknownProvider) {
				respondError(w, http.StatusBadRequest, "Unsupported OAuth provider")
				return
			}
			// A known provider that cannot be resolved (Canvas without
			// its tenant base, or unconfigured credentials) cannot
			// proceed to the exchange.
			log.Printf("OAuth: %s callback rejected: %v", providerKey, err)
			errorRedirect()
			return
		}

		tokenResp, err := exchanger.Exchange(r.Context(), provider, code)
		if err != nil {
			log.Printf("OAuth: %s token exchange failed: %v", providerKey, err)
			errorRedirect()
			return
		}

		token := store.TokenFromResponse(state, provider.Key(), tokenResp, time.Now())
		if err := st.UpsertToken(r.Context(), token); err != nil {
			// Reporting success without stored credentials would strand
			// the user, so persistence failure fails the flow.
			log.Printf("OAuth: failed to store %s token for user %s: %v", providerKey, state, err)
			errorRedirect()
			return
		}

		canvasBase := ""
		if canvasProvider, ok := provider.(*oauth.CanvasProvider); ok {
			canvasBase = canvasProvider.Base()
		}

		// Best-effort: the flag is a display cache, the token row above
		// is the authoritative record.
		if err := st.MarkConnected(r.Context(), state, provider.Key(), canvasBase); err != nil {
			log.Printf("OAuth: failed to update %s connection flag for user %s: %v", providerKey, state, err)
		}

		if hub != nil {
			hub.SendToUser(state, "integration_linked", map[string]string{"provider": provider.Key()})
		}

		http.Redirect(w, r, cfg.AppURL+"/?oauth="+providerKey+"_success", http.StatusFound)
	}
}
