// Package notifier reacts to order.created events: it prepares the
// WhatsApp follow-up the store operator sends to the customer.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-storefront/internal/checkout"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/money"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/settings"
)

type StoreSettings interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Notify delivers the follow-up link. The default only logs it.
type Notify func(ctx context.Context, o *orders.Order, link string) error

type Service struct {
	Redis       *redis.Client
	Settings    StoreSettings
	ServiceName string
	Notify      Notify
}

// HandleOrderCreated: dipasang sebagai handler consumer.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	return s.Handle(ctx, m.Value)
}

func (s *Service) Handle(ctx context.Context, value []byte) error {
	// 1) decode envelope
	env, err := kafkax.DecodeEnvelope(value)
	if err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		log.Debug().Str("event_id", env.EventID).Msg("duplicate event skipped")
		return nil
	}

	if err := s.process(ctx, env.Payload); err != nil {
		// the consumer retries in place; let that attempt past the dedup
		_ = s.Redis.Del(ctx, dkey).Err()
		return err
	}
	return nil
}

func (s *Service) process(ctx context.Context, payload []byte) error {
	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](payload)
	if err != nil {
		return err
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return err
	}

	link := checkout.WhatsAppLink(p.Order.Customer.Phone, CustomerMessage(&p.Order, st))
	notify := s.Notify
	if notify == nil {
		notify = logNotify
	}
	return notify(ctx, &p.Order, link)
}

// CustomerMessage confirms the order to the customer and restates the
// delivery window.
func CustomerMessage(o *orders.Order, st *settings.Settings) string {
	var b strings.Builder
	first, _, _ := strings.Cut(strings.TrimSpace(o.Customer.Name), " ")
	fmt.Fprintf(&b, "Olá %s! Recebemos seu pedido #%d no valor de %s.\n", first, o.ID, money.Format(o.Total))
	for _, it := range o.Items {
		fmt.Fprintf(&b, "• %s (Tam: %s) x%d\n", it.Name, it.SelectedSize, it.Quantity)
	}
	if st.DeliveryWarning != "" {
		fmt.Fprintf(&b, "\n%s\n", st.DeliveryWarning)
	}
	if st.Instagram != "" {
		fmt.Fprintf(&b, "Acompanhe a loja: %s", st.Instagram)
	}
	return strings.TrimRight(b.String(), "\n")
}

func logNotify(_ context.Context, o *orders.Order, link string) error {
	log.Info().
		Int64("order_id", o.ID).
		Str("customer", o.Customer.Name).
		Str("whatsapp_link", link).
		Msg("order ready for operator follow-up")
	return nil
}
