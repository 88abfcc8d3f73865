// Package checkout turns a cart into a persisted order and hands the
// customer off to the configured payment or contact channel.
package checkout

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/payment"
	"github.com/ariefcatur/go-storefront/internal/settings"
	"github.com/ariefcatur/go-storefront/internal/shipping"
)

type Channel string

const (
	ChannelMercadoPago Channel = "mercadopago"
	ChannelWhatsApp    Channel = "whatsapp"
	ChannelNone        Channel = "none"
)

func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelMercadoPago, ChannelWhatsApp, ChannelNone:
		return c, nil
	case "":
		return ChannelNone, nil
	}
	return "", fmt.Errorf("unknown checkout channel %q", s)
}

type Products interface {
	Get(ctx context.Context, id int64) (*catalog.Product, error)
}

type Orders interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	AttachPayment(ctx context.Context, id int64, paymentID string) (*orders.Order, error)
}

type Estimator interface {
	Estimate(ctx context.Context, postalCode string, subtotal decimal.Decimal) (*shipping.Estimate, error)
}

type StoreSettings interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Gateway interface {
	CreatePreference(ctx context.Context, p payment.Preference) (*payment.PreferenceResult, error)
}

type LineItem struct {
	ID           int64  `json:"id"`
	SelectedSize string `json:"selectedSize"`
	Quantity     int    `json:"quantity"`
}

type Request struct {
	Items         []LineItem           `json:"items"`
	Customer      orders.Customer      `json:"customer"`
	PaymentMethod orders.PaymentMethod `json:"payment_method"`
}

type Result struct {
	Order       *orders.Order      `json:"order"`
	Shipping    *shipping.Estimate `json:"shipping"`
	RedirectURL string             `json:"redirect_url"`
}

type Service struct {
	Products Products
	Orders   Orders
	Shipping Estimator
	Settings StoreSettings
	Gateway  Gateway // required for ChannelMercadoPago
	Channel  Channel
}

// Checkout prices the cart from the catalog, adds shipping and stores the
// order before any hand-off. A failed hand-off leaves the order awaiting
// payment and returns it without a redirect.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	cart, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	subtotal := cart.Subtotal()
	est, err := s.Shipping.Estimate(ctx, req.Customer.Address.Zip, subtotal)
	if err != nil {
		return nil, err
	}

	customer := req.Customer
	fillAddress(&customer.Address, est)

	items := make([]orders.Item, 0, len(cart.Items()))
	for _, it := range cart.Items() {
		items = append(items, orders.Item{
			ID:           it.ID,
			Name:         it.Name,
			Price:        it.Price,
			Image:        it.Image,
			Quantity:     it.Quantity,
			SelectedSize: it.SelectedSize,
		})
	}

	order, err := s.Orders.Create(ctx, orders.CreateInput{
		Items:         items,
		Customer:      &customer,
		Total:         subtotal.Add(est.Fee),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Order: order, Shipping: est}
	redirect, err := s.handOff(ctx, res, cart, est.Fee)
	if err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Str("channel", string(s.Channel)).Msg("checkout hand-off failed")
		return res, nil
	}
	res.RedirectURL = redirect
	return res, nil
}

func (s *Service) buildCart(ctx context.Context, lines []LineItem) (*Cart, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("Cart is empty")
	}
	cart := &Cart{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation("Invalid quantity for product %d", l.ID)
		}
		p, err := s.Products.Get(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		if len(p.Sizes) > 0 && !slices.Contains(p.Sizes, l.SelectedSize) {
			return nil, apperr.Validation("Size %q not available for product %d", l.SelectedSize, l.ID)
		}
		cart.AddQuantity(*p, l.SelectedSize, l.Quantity)
	}
	return cart, nil
}

func (s *Service) handOff(ctx context.Context, res *Result, cart *Cart, fee decimal.Decimal) (string, error) {
	switch s.Channel {
	case ChannelMercadoPago:
		pref := payment.Preference{OrderID: res.Order.ID, ShippingCost: fee}
		for _, it := range cart.Items() {
			pref.Items = append(pref.Items, payment.Item{
				ID: it.ID, Name: it.Name, Size: it.SelectedSize, Quantity: it.Quantity, Price: it.Price,
			})
		}
		pr, err := s.Gateway.CreatePreference(ctx, pref)
		if err != nil {
			return "", err
		}
		if updated, err := s.Orders.AttachPayment(ctx, res.Order.ID, pr.ID); err != nil {
			log.Warn().Err(err).Int64("order_id", res.Order.ID).Msg("could not record preference id")
		} else {
			res.Order = updated
		}
		return pr.InitPoint, nil

	case ChannelWhatsApp:
		st, err := s.Settings.Get(ctx)
		if err != nil {
			return "", err
		}
		return WhatsAppLink(st.WhatsApp, OrderSummary(res.Order)), nil
	}
	return "", nil
}

// fillAddress completes the fields the customer left blank from the postal
// code lookup.
func fillAddress(a *orders.Address, est *shipping.Estimate) {
	a.Zip = est.PostalCode
	if a.Street == "" {
		a.Street = est.Address.Street
	}
	if a.Neighborhood == "" {
		a.Neighborhood = est.Address.Neighborhood
	}
	if a.City == "" {
		a.City = est.Address.City
	}
	if a.State == "" {
		a.State = est.Address.State
	}
}
