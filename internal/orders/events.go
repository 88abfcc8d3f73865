package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentNotified    = "PaymentNotified"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g., "storefront-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// Publisher ships an envelope to topic. Implemented by the Kafka producer
// and the RabbitMQ publisher.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, ev Envelope) error
}

func NewEnvelope(eventType, producer, correlationID, traceID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// ---- Payload tipe per event ----

type OrderCreatedPayload struct {
	Order Order `json:"order"`
}

type OrderStatusChangedPayload struct {
	OrderID      int64   `json:"order_id"`
	From         Status  `json:"from"`
	To           Status  `json:"to"`
	TrackingCode *string `json:"tracking_code,omitempty"`
}

// PaymentNotifiedPayload carries a gateway notification as received.
type PaymentNotifiedPayload struct {
	Type      string          `json:"type,omitempty"`
	Action    string          `json:"action,omitempty"`
	DataID    string          `json:"data_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Raw       json.RawMessage `json:"raw"`
}
