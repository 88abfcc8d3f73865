package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/orders"
)

type updateStatusReq struct {
	Status       string  `json:"status" validate:"required,order_status"`
	TrackingCode *string `json:"tracking_code"`
}

func (h *Handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.List(ctx)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch orders")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *Handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch order")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Create(ctx, in)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create order")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{
		"order":   o,
		"message": "Order created successfully",
	})
}

func (h *Handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	var req updateStatusReq
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, id, orders.Status(req.Status), req.TrackingCode)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"order":   o,
		"message": "Order status updated",
	})
}
