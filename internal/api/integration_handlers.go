package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyhub-app/studyhub-server/internal/canvas"
	"github.com/studyhub-app/studyhub-server/internal/oauth"
	"github.com/studyhub-app/studyhub-server/internal/store"
)

// HandleGetIntegrations returns the user's provider link status so the
// client can hydrate its connect/disconnect buttons.
func HandleGetIntegrations(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		flags, err := st.ConnectionFlags(r.Context(), user.ID)
		if err != nil {
			log.Println("Integrations: failed to load connection flags:", err.Error())
			respondError(w, http.StatusInternalServerError, "Database error")
			return
		}

		respondJSON(w, http.StatusOK, flags)
	}
}

// HandleDisconnectIntegration removes a provider's stored tokens and
// clears the connection flag.
func HandleDisconnectIntegration(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		providerKey := chi.URLParam(r, "provider")

		if providerKey != oauth.KeyGoogle && providerKey != oauth.KeyCanvas {
			respondError(w, http.StatusBadRequest, "Unsupported OAuth provider")
			return
		}

		if err := st.Disconnect(r.Context(), user.ID, providerKey); err != nil {
			log.Printf("Integrations: failed to disconnect %s for user %s: %v", providerKey, user.ID, err)
			respondError(w, http.StatusInternalServerError, "Failed to disconnect provider")
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"message": providerKey + " disconnected"})
	}
}

// HandleCanvasSync imports the user's Canvas courses and grades
func HandleCanvasSync(syncer *canvas.Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)

		result, err := syncer.Sync(r.Context(), user)
		if errors.Is(err, store.ErrNotConnected) {
			respondError(w, http.StatusConflict, "Canvas is not connected")
			return
		}
		if err != nil {
			log.Printf("Integrations: Canvas sync failed for user %s: %v", user.ID, err)
			respondError(w, http.StatusBadGateway, "Canvas sync failed")
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
