// Package orders owns the order lifecycle: creation from a checkout
// snapshot, listing for the admin panel and manual status updates.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/money"
	"github.com/ariefcatur/go-storefront/internal/redisx"
)

type Service struct {
	Store       kv.Store
	Events      Publisher // optional
	ServiceName string
	Now         func() time.Time
}

func NewService(store kv.Store, events Publisher, serviceName string) *Service {
	return &Service{Store: store, Events: events, ServiceName: serviceName, Now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if len(in.Items) == 0 || in.Customer == nil || in.Total.IsZero() {
		return nil, apperr.Validation("Missing required fields: items, customer, total")
	}

	id, err := s.Store.Incr(ctx, redisx.KeyOrderCounter)
	if err != nil {
		return nil, apperr.Persistence("next order id", err)
	}

	now := s.Now().UTC()
	o := Order{
		ID:            id,
		Items:         append([]Item(nil), in.Items...),
		Customer:      *in.Customer,
		Total:         in.Total,
		Status:        StatusAwaitingPayment,
		PaymentMethod: in.PaymentMethod,
		PaymentID:     in.PaymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = PaymentPix
	}
	if o.PaymentID != nil && *o.PaymentID == "" {
		o.PaymentID = nil
	}

	if err := s.save(ctx, &o); err != nil {
		return nil, err
	}

	log.Info().
		Int64("order_id", o.ID).
		Str("customer", o.Customer.Name).
		Str("total", money.Format(o.Total)).
		Msg("new order created")

	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{Order: o})
	return &o, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	raws, err := s.Store.GetByPrefix(ctx, redisx.PrefixOrder)
	if err != nil {
		return nil, apperr.Persistence("list orders", err)
	}
	out := make([]Order, 0, len(raws))
	for _, b := range raws {
		var o Order
		if err := json.Unmarshal(b, &o); err != nil {
			return nil, apperr.Persistence("decode order", err)
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	b, err := s.Store.Get(ctx, redisx.OrderKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Persistence("get order", err)
	}
	var o Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, apperr.Persistence("decode order", err)
	}
	return &o, nil
}

// UpdateStatus overwrites the status. An omitted or empty tracking code
// keeps the stored one.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, trackingCode *string) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := o.Status
	o.Status = status
	if trackingCode != nil && *trackingCode != "" {
		tc := *trackingCode
		o.TrackingCode = &tc
	}
	o.UpdatedAt = s.Now().UTC()

	if err := s.save(ctx, o); err != nil {
		return nil, err
	}

	log.Info().Int64("order_id", id).Str("from", string(from)).Str("to", string(status)).Msg("order status updated")

	s.publish(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, id, OrderStatusChangedPayload{
		OrderID: id, From: from, To: status, TrackingCode: o.TrackingCode,
	})
	return o, nil
}

// AttachPayment records the gateway reference (e.g. a checkout preference)
// on an existing order.
func (s *Service) AttachPayment(ctx context.Context, id int64, paymentID string) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.PaymentID = &paymentID
	o.UpdatedAt = s.Now().UTC()
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) save(ctx context.Context, o *Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return apperr.Persistence("encode order", err)
	}
	if err := s.Store.Set(ctx, redisx.OrderKey(o.ID), b); err != nil {
		return apperr.Persistence("save order", err)
	}
	return nil
}

// publish never fails the caller; the order is already stored.
func (s *Service) publish(ctx context.Context, topic, eventType string, orderID int64, payload any) {
	if s.Events == nil {
		return
	}
	ev, err := NewEnvelope(eventType, s.ServiceName, strconv.FormatInt(orderID, 10), middleware.GetReqID(ctx), payload)
	if err == nil {
		err = s.Events.Publish(ctx, topic, PartitionKey(orderID), ev)
	}
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Int64("order_id", orderID).Msg("publish event failed")
	}
}
