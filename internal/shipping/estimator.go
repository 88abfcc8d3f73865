// Package shipping estimates the delivery fee for a Brazilian postal code
// (CEP) from the destination state, with a free-shipping threshold.
package shipping

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/apperr"
)

var (
	feeSoutheast = decimal.NewFromInt(20)
	feeSouth     = decimal.NewFromInt(30)
	feeOther     = decimal.NewFromInt(45)

	// DefaultFreeThreshold is the subtotal from which shipping is free.
	DefaultFreeThreshold = decimal.NewFromInt(200)
)

var regionFees = map[string]decimal.Decimal{
	"SP": feeSoutheast, "RJ": feeSoutheast, "MG": feeSoutheast, "ES": feeSoutheast,
	"PR": feeSouth, "SC": feeSouth, "RS": feeSouth,
}

type Address struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Lookup resolves a normalized 8-digit CEP to an address.
type Lookup interface {
	Lookup(ctx context.Context, cep string) (*Address, error)
}

type Estimate struct {
	PostalCode   string          `json:"postal_code"`
	Address      Address         `json:"address"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	Fee          decimal.Decimal `json:"fee"`
	FreeShipping bool            `json:"free_shipping"`
}

type Estimator struct {
	Lookup Lookup
	// FreeThreshold zero makes every order ship free; negative disables
	// free shipping.
	FreeThreshold decimal.Decimal
}

func NewEstimator(lookup Lookup, freeThreshold decimal.Decimal) *Estimator {
	return &Estimator{Lookup: lookup, FreeThreshold: freeThreshold}
}

func (e *Estimator) Estimate(ctx context.Context, postalCode string, subtotal decimal.Decimal) (*Estimate, error) {
	cep, err := NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}
	addr, err := e.Lookup.Lookup(ctx, cep)
	if err != nil {
		return nil, err
	}

	base := BaseFee(addr.State)
	out := &Estimate{
		PostalCode: cep,
		Address:    *addr,
		BaseFee:    base,
		Fee:        base,
	}
	if !e.FreeThreshold.IsNegative() && subtotal.GreaterThanOrEqual(e.FreeThreshold) {
		out.Fee = decimal.Zero
		out.FreeShipping = true
	}
	return out, nil
}

// BaseFee maps a state code (UF) to its flat fee.
func BaseFee(state string) decimal.Decimal {
	if fee, ok := regionFees[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return fee
	}
	return feeOther
}

// NormalizePostalCode strips everything but ASCII digits and requires
// exactly 8.
func NormalizePostalCode(s string) (string, error) {
	cep := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(cep) != 8 {
		return "", apperr.Validation("CEP must have 8 digits")
	}
	return cep, nil
}
