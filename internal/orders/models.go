package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "pix"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentBoleto     PaymentMethod = "boleto"
)

// Item is a snapshot of the product at purchase time. Later catalog edits
// or deletions never touch it.
type Item struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	Quantity     int             `json:"quantity"`
	SelectedSize string          `json:"selectedSize"`
}

type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

type Customer struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	CPF     string  `json:"cpf"`
	Address Address `json:"address"`
}

type Order struct {
	ID            int64           `json:"id"`
	Items         []Item          `json:"items"`
	Customer      Customer        `json:"customer"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"` // lihat status.go
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentID     *string         `json:"payment_id"`
	TrackingCode  *string         `json:"tracking_code"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CreateInput struct {
	Items         []Item          `json:"items"`
	Customer      *Customer       `json:"customer"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentID     *string         `json:"payment_id"`
}
