package httpx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/kv"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/payment"
	"github.com/ariefcatur/go-storefront/internal/settings"
	"github.com/ariefcatur/go-storefront/internal/shipping"
)

const testPath = "/make-server-4e6d071e"

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, key []byte, ev orders.Envelope) error {
	args := m.Called(ctx, topic, key, ev)
	return args.Error(0)
}

type stubLookup struct{}

func (stubLookup) Lookup(_ context.Context, cep string) (*shipping.Address, error) {
	return &shipping.Address{PostalCode: cep, Street: "Av. Paulista", Neighborhood: "Bela Vista", City: "São Paulo", State: "SP"}, nil
}

type testServer struct {
	srv      *httptest.Server
	products *catalog.Service
	events   *MockPublisher
}

func newTestServer(t *testing.T, auth Authenticator, secret string) *testServer {
	t.Helper()
	store := kv.NewMemory()
	products := catalog.NewService(store)
	ords := orders.NewService(store, nil, "storefront-api")
	st := settings.NewService(store)
	est := shipping.NewEstimator(stubLookup{}, shipping.DefaultFreeThreshold)
	events := &MockPublisher{}

	h := &Handlers{
		Products: products,
		Orders:   ords,
		Settings: st,
		Shipping: est,
		Checkout: &checkout.Service{
			Products: products,
			Orders:   ords,
			Shipping: est,
			Settings: st,
			Channel:  checkout.ChannelWhatsApp,
		},
		Events:        events,
		WebhookSecret: secret,
		ServiceName:   "storefront-api",
	}
	r := NewRouter("*")
	Mount(r, testPath, auth, h)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &testServer{srv: ts, products: products, events: events}
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+testPath+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://crstreet.com.br")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Authenticator{}, "")

	resp, body := ts.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "C&R Street API is running", body["message"])
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProductHandlers(t *testing.T) {
	ts := newTestServer(t, Authenticator{}, "")

	t.Run("create", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/products",
			`{"name":"Moletom Oversized Black","price":299.90,"category":"Moletons"}`, nil)

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Product created successfully", body["message"])
		p := body["product"].(map[string]any)
		assert.Equal(t, float64(1), p["id"])
		assert.Equal(t, 299.9, p["price"])
		assert.Equal(t, float64(catalog.UnlimitedStock), p["stock"])
	})

	t.Run("create missing fields", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/products", `{"name":"Sem preço"}`, nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing required fields: name, price, category", body["error"])
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/products", `{"name":`, nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid JSON body", body["error"])
	})

	t.Run("update", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPut, "/products/1", `{"stock":3}`, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Product updated successfully", body["message"])
		p := body["product"].(map[string]any)
		assert.Equal(t, float64(3), p["stock"])
		assert.Equal(t, "Moletom Oversized Black", p["name"])
		assert.NotNil(t, p["updated_at"])
	})

	t.Run("list and get", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodGet, "/products", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["products"], 1)

		resp, body = ts.do(t, http.MethodGet, "/products/1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Moletons", body["product"].(map[string]any)["category"])
	})

	t.Run("unknown and non numeric ids", func(t *testing.T) {
		for _, path := range []string{"/products/99", "/products/abc"} {
			resp, body := ts.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
			assert.Equal(t, "Product not found", body["error"], path)
		}
	})

	t.Run("delete", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodDelete, "/products/1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Product deleted successfully", body["message"])

		resp, _ = ts.do(t, http.MethodDelete, "/products/1", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

const orderBody = `{
	"items":[{"id":1,"name":"Moletom","price":299.90,"quantity":1,"selectedSize":"M"}],
	"customer":{"name":"Ana Souza","email":"ana@example.com","phone":"11988887777","cpf":"123",
		"address":{"street":"Rua A","number":"10","city":"São Paulo","state":"SP","zip":"01310100"}},
	"total":299.90
}`

func TestOrderHandlers(t *testing.T) {
	ts := newTestServer(t, Authenticator{}, "")

	resp, body := ts.do(t, http.MethodPost, "/orders", orderBody, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Order created successfully", body["message"])
	o := body["order"].(map[string]any)
	assert.Equal(t, string(orders.StatusAwaitingPayment), o["status"])
	assert.Equal(t, string(orders.PaymentPix), o["payment_method"])

	t.Run("missing fields", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/orders", `{"items":[]}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Missing required fields: items, customer, total", body["error"])
	})

	t.Run("status update keeps tracking code", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPatch, "/orders/1/status",
			`{"status":"enviado","tracking_code":"BR123"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Order status updated", body["message"])

		resp, body = ts.do(t, http.MethodPatch, "/orders/1/status", `{"status":"entregue"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		o := body["order"].(map[string]any)
		assert.Equal(t, "entregue", o["status"])
		assert.Equal(t, "BR123", o["tracking_code"])
	})

	t.Run("unknown status", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPatch, "/orders/1/status", `{"status":"perdido"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "status must be one of")
	})

	t.Run("unknown order", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPatch, "/orders/42/status", `{"status":"pago"}`, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Order not found", body["error"])
	})

	t.Run("list", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodGet, "/orders", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["orders"], 1)
	})
}

func TestSettingsHandlers(t *testing.T) {
	ts := newTestServer(t, Authenticator{}, "")

	resp, body := ts.do(t, http.MethodGet, "/settings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := body["settings"].(map[string]any)
	assert.Equal(t, float64(15), st["delivery_days_min"])
	assert.Equal(t, "@crstreet", st["instagram"])

	resp, body = ts.do(t, http.MethodPut, "/settings", `{"delivery_days_min":5,"instagram":"@novo"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Settings updated", body["message"])

	_, body = ts.do(t, http.MethodGet, "/settings", "", nil)
	st = body["settings"].(map[string]any)
	assert.Equal(t, float64(5), st["delivery_days_min"])
	assert.Equal(t, "", st["whatsapp"])
}

func TestEstimateShipping(t *testing.T) {
	ts := newTestServer(t, Authenticator{}, "")

	resp, body := ts.do(t, http.MethodGet, "/shipping/estimate?cep=01310-100&subtotal=150", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := body["shipping"].(map[string]any)
	assert.Equal(t, "01310100", s["postal_code"])
	assert.Equal(t, float64(20), s["fee"])
	assert.Equal(t, false, s["free_shipping"])

	resp, _ = ts.do(t, http.MethodGet, "/shipping/estimate?cep=123", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/shipping/estimate?cep=01310100&subtotal=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid subtotal", body["error"])
}

func TestCheckoutHandler(t *testing.T) {
	ts := newTestServer(t, Authenticator{}, "")
	_, err := ts.products.Create(context.Background(), catalog.CreateInput{
		Name: "Camiseta Oversized", Price: decimal.RequireFromString("109.90"), Category: "Camisetas",
	})
	require.NoError(t, err)

	body := `{"items":[{"id":1,"selectedSize":"M","quantity":2}],
		"customer":{"name":"Ana","email":"ana@example.com","phone":"11988887777",
			"address":{"number":"10","zip":"01310100"}},
		"payment_method":"pix"}`
	resp, out := ts.do(t, http.MethodPost, "/checkout", body, nil)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := out["order"].(map[string]any)
	assert.Equal(t, 219.8, o["total"])
	assert.Equal(t, "Av. Paulista", o["customer"].(map[string]any)["address"].(map[string]any)["street"])
	assert.True(t, strings.HasPrefix(out["redirect_url"].(string), "https://wa.me/5511999999999?text="))

	t.Run("validation", func(t *testing.T) {
		resp, out := ts.do(t, http.MethodPost, "/checkout",
			`{"items":[{"id":1,"quantity":0}],"customer":{"name":"Ana","email":"x","phone":"1","address":{"number":"1","zip":"01310100"}}}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, out["error"], "items[0].quantity is required")
		assert.Contains(t, out["error"], "customer.email must be a valid email")
	})

	t.Run("unknown product", func(t *testing.T) {
		resp, out := ts.do(t, http.MethodPost, "/checkout", strings.Replace(body, `"id":1`, `"id":7`, 1), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Product not found", out["error"])
	})
}

func TestAuth(t *testing.T) {
	secret := []byte("jwt-secret")
	ts := newTestServer(t, Authenticator{APIKey: "anon-key", JWTSecret: secret}, "")

	signed := func(t *testing.T, key []byte, exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"api key", "Bearer anon-key", http.StatusOK},
		{"lowercase scheme", "bearer anon-key", http.StatusOK},
		{"raw key without scheme", "anon-key", http.StatusUnauthorized},
		{"basic scheme", "Basic anon-key", http.StatusUnauthorized},
		{"jwt", "Bearer " + signed(t, secret, time.Now().Add(time.Hour)), http.StatusOK},
		{"expired jwt", "Bearer " + signed(t, secret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"jwt other secret", "Bearer " + signed(t, []byte("other"), time.Now().Add(time.Hour)), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			resp, body := ts.do(t, http.MethodGet, "/health", "", headers)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusUnauthorized {
				assert.NotEmpty(t, body["error"])
			}
		})
	}

	t.Run("preflight skips auth", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodOptions, "/orders/1/status", "", map[string]string{
			"Access-Control-Request-Method":  "PATCH",
			"Access-Control-Request-Headers": "Authorization, Content-Type",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func sign(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payment.Manifest(dataID, requestID, ts)))
	return "ts=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestMercadoPagoWebhook(t *testing.T) {
	const secret = "whsec"
	payload := `{"type":"payment","action":"payment.updated","data":{"id":123456}}`

	t.Run("valid signature is published", func(t *testing.T) {
		ts := newTestServer(t, Authenticator{}, secret)
		ts.events.On("Publish", mock.Anything, orders.TopicPaymentNotified, []byte("123456"),
			mock.MatchedBy(func(ev orders.Envelope) bool {
				return ev.EventType == orders.EventPaymentNotified && ev.CorrelationID == "123456"
			})).Return(nil).Once()

		resp, body := ts.do(t, http.MethodPost, "/webhook/mercadopago", payload, map[string]string{
			"x-request-id": "req-1",
			"x-signature":  sign(secret, "123456", "req-1", "1700000000"),
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["received"])
		ts.events.AssertExpectations(t)
	})

	t.Run("bad signature", func(t *testing.T) {
		ts := newTestServer(t, Authenticator{}, secret)

		resp, _ := ts.do(t, http.MethodPost, "/webhook/mercadopago", payload, map[string]string{
			"x-request-id": "req-1",
			"x-signature":  sign("other", "123456", "req-1", "1700000000"),
		})

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		ts.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no secret configured", func(t *testing.T) {
		ts := newTestServer(t, Authenticator{}, "")
		ts.events.On("Publish", mock.Anything, orders.TopicPaymentNotified, mock.Anything, mock.Anything).
			Return(assert.AnError).Once()

		resp, body := ts.do(t, http.MethodPost, "/webhook/mercadopago", payload, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["received"])
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, Authenticator{}, "")

		resp, _ := ts.do(t, http.MethodPost, "/webhook/mercadopago", `not json`, nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRawID(t *testing.T) {
	assert.Equal(t, "abc", rawID(json.RawMessage(`"abc"`)))
	assert.Equal(t, "123", rawID(json.RawMessage(`123`)))
	assert.Equal(t, "", rawID(nil))
	assert.Equal(t, "", rawID(json.RawMessage(`{}`)))
}

func TestCORS_OriginList(t *testing.T) {
	h := CORS("https://crstreet.com.br, https://admin.crstreet.com.br")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := map[string]string{
		"https://admin.crstreet.com.br": "https://admin.crstreet.com.br",
		"https://evil.example":          "",
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, origin)
		assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}
