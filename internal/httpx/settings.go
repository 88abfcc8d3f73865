package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/settings"
)

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Settings.Get(ctx)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch settings")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"settings": st})
}

// updateSettings replaces the whole document; omitted fields become zero.
func (h *Handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Settings.Update(ctx, in)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update settings")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"settings": st,
		"message":  "Settings updated",
	})
}
