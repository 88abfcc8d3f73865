package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/payment"
)

type mpNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// mercadoPagoWebhook acknowledges gateway notifications and forwards them
// as payment.notified events. Order status is left untouched.
func (h *Handlers) mercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	var n mpNotification
	if err := json.Unmarshal(body, &n); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	dataID := r.URL.Query().Get("data.id")
	if dataID == "" {
		dataID = rawID(n.Data.ID)
	}
	requestID := r.Header.Get("x-request-id")

	if h.WebhookSecret != "" {
		if err := payment.VerifySignature(h.WebhookSecret, r.Header.Get("x-signature"), requestID, dataID); err != nil {
			log.Warn().Err(err).Str("data_id", dataID).Msg("rejected webhook")
			respondWithError(w, http.StatusUnauthorized, "Invalid signature")
			return
		}
	}

	log.Info().
		Str("type", n.Type).
		Str("action", n.Action).
		Str("data_id", dataID).
		RawJSON("payload", body).
		Msg("mercado pago webhook received")

	h.publishPayment(r, orders.PaymentNotifiedPayload{
		Type:      n.Type,
		Action:    n.Action,
		DataID:    dataID,
		RequestID: requestID,
		Raw:       body,
	})
	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handlers) publishPayment(r *http.Request, p orders.PaymentNotifiedPayload) {
	if h.Events == nil {
		return
	}
	ev, err := orders.NewEnvelope(orders.EventPaymentNotified, h.ServiceName, p.DataID, requestID(r), p)
	if err == nil {
		err = h.Events.Publish(r.Context(), orders.TopicPaymentNotified, []byte(p.DataID), ev)
	}
	if err != nil {
		log.Error().Err(err).Str("data_id", p.DataID).Msg("publish payment notification failed")
	}
}

// rawID accepts data.id as a JSON string or number.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
