// Package money holds the storefront's BRL helpers. Importing it makes
// shopspring/decimal values serialize as JSON numbers.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Format renders d the way prices are shown to customers: "R$ 1.299,90".
func Format(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Neg()
	}
	p := message.NewPrinter(language.BrazilianPortuguese)
	return sign + "R$ " + p.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// Sum adds up amounts. An empty list is zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
