package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/settings"
	"github.com/ariefcatur/go-storefront/internal/shipping"
)

type ProductService interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id int64) (*catalog.Product, error)
	Create(ctx context.Context, in catalog.CreateInput) (*catalog.Product, error)
	Update(ctx context.Context, id int64, patch []byte) (*catalog.Product, error)
	Delete(ctx context.Context, id int64) error
}

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	List(ctx context.Context) ([]orders.Order, error)
	Get(ctx context.Context, id int64) (*orders.Order, error)
	UpdateStatus(ctx context.Context, id int64, status orders.Status, trackingCode *string) (*orders.Order, error)
}

type SettingsService interface {
	Get(ctx context.Context) (*settings.Settings, error)
	Update(ctx context.Context, st settings.Settings) (*settings.Settings, error)
}

type ShippingEstimator interface {
	Estimate(ctx context.Context, postalCode string, subtotal decimal.Decimal) (*shipping.Estimate, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// Handlers serves the storefront API. Events and WebhookSecret are
// optional.
type Handlers struct {
	Products      ProductService
	Orders        OrderService
	Settings      SettingsService
	Shipping      ShippingEstimator
	Checkout      CheckoutService
	Events        orders.Publisher
	WebhookSecret string
	ServiceName   string

	validate *validator.Validate
}

func (h *Handlers) Register(r chi.Router) {
	h.validate = newValidator()

	r.Get("/health", h.health)

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)

	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders", h.createOrder)
	r.Patch("/orders/{id}/status", h.updateOrderStatus)

	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.updateSettings)

	r.Get("/shipping/estimate", h.estimateShipping)
	r.Post("/checkout", h.checkout)

	r.Post("/webhook/mercadopago", h.mercadoPagoWebhook)
}

// NewRouter sets up the shared middleware and an unauthenticated /healthz
// for orchestrators. The API itself is mounted by the caller under its
// service path.
func NewRouter(corsOrigin string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger, middleware.Recoverer)
	r.Use(CORS(corsOrigin))
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Mount attaches h under servicePath behind auth.
func Mount(r chi.Router, servicePath string, auth Authenticator, h *Handlers) {
	if servicePath == "" {
		servicePath = "/"
	}
	r.Route(servicePath, func(r chi.Router) {
		r.Use(auth.Middleware)
		h.Register(r)
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "C&R Street API is running",
	})
}
