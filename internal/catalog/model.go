package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Gender string

const (
	GenderMale   Gender = "Masculino"
	GenderFemale Gender = "Feminino"
	GenderUnisex Gender = "Unissex"
)

// UnlimitedStock is the nominal stock of a drop-shipped product.
const UnlimitedStock = 999

var DefaultSizes = []string{"P", "M", "G", "GG"}

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Images       []string        `json:"images"`
	Category     string          `json:"category"`
	Gender       Gender          `json:"gender"`
	Sizes        []string        `json:"sizes"`
	SupplierLink string          `json:"supplier_link"` // fornecedor (Shein)
	SupplierCost decimal.Decimal `json:"supplier_cost"`
	Stock        int             `json:"stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

type CreateInput struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Images       []string        `json:"images"`
	Category     string          `json:"category"`
	Gender       Gender          `json:"gender"`
	Sizes        []string        `json:"sizes"`
	SupplierLink string          `json:"supplier_link"`
	SupplierCost decimal.Decimal `json:"supplier_cost"`
	Stock        *int            `json:"stock"`
}
