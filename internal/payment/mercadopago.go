// Package payment talks to the Mercado Pago checkout API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/apperr"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"
	currencyBRL    = "BRL"
	shippingItemID = "ship"
)

type Item struct {
	ID       int64
	Name     string
	Size     string
	Quantity int
	Price    decimal.Decimal
}

type Preference struct {
	OrderID      int64
	Items        []Item
	ShippingCost decimal.Decimal
}

type PreferenceResult struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

type MercadoPago struct {
	BaseURL         string
	AccessToken     string
	BackURL         string // success, failure and pending all return here
	NotificationURL string
	HTTP            *http.Client
}

func NewMercadoPago(baseURL, accessToken, backURL, notificationURL string) *MercadoPago {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &MercadoPago{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		AccessToken:     accessToken,
		BackURL:         backURL,
		NotificationURL: notificationURL,
		HTTP:            &http.Client{Timeout: 5 * time.Second},
	}
}

type mpItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type mpPreferenceRequest struct {
	Items             []mpItem    `json:"items"`
	BackURLs          *mpBackURLs `json:"back_urls,omitempty"`
	AutoReturn        string      `json:"auto_return,omitempty"`
	ExternalReference string      `json:"external_reference"`
	NotificationURL   string      `json:"notification_url,omitempty"`
}

func (m *MercadoPago) preferenceRequest(p Preference) mpPreferenceRequest {
	items := make([]mpItem, 0, len(p.Items)+1)
	for _, it := range p.Items {
		items = append(items, mpItem{
			ID:         strconv.FormatInt(it.ID, 10),
			Title:      fmt.Sprintf("%s - Tam: %s", it.Name, it.Size),
			Quantity:   it.Quantity,
			UnitPrice:  it.Price.InexactFloat64(),
			CurrencyID: currencyBRL,
		})
	}
	if p.ShippingCost.IsPositive() {
		items = append(items, mpItem{
			ID:         shippingItemID,
			Title:      "Frete / Entrega",
			Quantity:   1,
			UnitPrice:  p.ShippingCost.InexactFloat64(),
			CurrencyID: currencyBRL,
		})
	}

	req := mpPreferenceRequest{
		Items:             items,
		ExternalReference: strconv.FormatInt(p.OrderID, 10),
		NotificationURL:   m.NotificationURL,
	}
	// auto_return is rejected by the API without a success URL
	if m.BackURL != "" {
		req.BackURLs = &mpBackURLs{Success: m.BackURL, Failure: m.BackURL, Pending: m.BackURL}
		req.AutoReturn = "approved"
	}
	return req
}

// CreatePreference registers a checkout preference and returns the URL the
// customer is redirected to.
func (m *MercadoPago) CreatePreference(ctx context.Context, p Preference) (*PreferenceResult, error) {
	if m.AccessToken == "" {
		return nil, apperr.External("mercadopago", errors.New("access token not configured"))
	}

	body, err := json.Marshal(m.preferenceRequest(p))
	if err != nil {
		return nil, apperr.External("mercadopago", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.External("mercadopago", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	// retried requests with the same key are not duplicated
	req.Header.Set("X-Idempotency-Key", "order-"+strconv.FormatInt(p.OrderID, 10))

	resp, err := m.HTTP.Do(req)
	if err != nil {
		return nil, apperr.External("mercadopago", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.External("mercadopago", fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	var out PreferenceResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.External("mercadopago", fmt.Errorf("decode: %w", err))
	}
	if out.InitPoint == "" {
		return nil, apperr.External("mercadopago", errors.New("response without init_point"))
	}
	return &out, nil
}
