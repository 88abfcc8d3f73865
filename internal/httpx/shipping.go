package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

func (h *Handlers) estimateShipping(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subtotal := decimal.Zero
	if s := q.Get("subtotal"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			respondWithError(w, http.StatusBadRequest, "Invalid subtotal")
			return
		}
		subtotal = d
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	est, err := h.Shipping.Estimate(ctx, q.Get("cep"), subtotal)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to estimate shipping")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"shipping": est})
}
