package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/orders"
)

type checkoutLineReq struct {
	ID           int64  `json:"id" validate:"required,gt=0"`
	SelectedSize string `json:"selectedSize"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
}

type addressReq struct {
	Street       string `json:"street"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip" validate:"required"`
}

type customerReq struct {
	Name    string     `json:"name" validate:"required"`
	Email   string     `json:"email" validate:"required,email"`
	Phone   string     `json:"phone" validate:"required"`
	CPF     string     `json:"cpf"`
	Address addressReq `json:"address"`
}

type checkoutReq struct {
	Items         []checkoutLineReq `json:"items" validate:"required,min=1,dive"`
	Customer      customerReq       `json:"customer"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=pix credit_card boleto"`
}

func (req checkoutReq) toRequest() checkout.Request {
	out := checkout.Request{
		Items: make([]checkout.LineItem, 0, len(req.Items)),
		Customer: orders.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
			CPF:   req.Customer.CPF,
			Address: orders.Address{
				Street:       req.Customer.Address.Street,
				Number:       req.Customer.Address.Number,
				Complement:   req.Customer.Address.Complement,
				Neighborhood: req.Customer.Address.Neighborhood,
				City:         req.Customer.Address.City,
				State:        req.Customer.Address.State,
				Zip:          req.Customer.Address.Zip,
			},
		},
		PaymentMethod: orders.PaymentMethod(req.PaymentMethod),
	}
	for _, l := range req.Items {
		out.Items = append(out.Items, checkout.LineItem{ID: l.ID, SelectedSize: l.SelectedSize, Quantity: l.Quantity})
	}
	return out
}

func (h *Handlers) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Checkout.Checkout(ctx, req.toRequest())
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to complete checkout")
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}
