package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/money"
	"github.com/ariefcatur/go-storefront/internal/orders"
)

// WhatsAppLink builds a click-to-chat link with a prefilled message.
func WhatsAppLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	// wa.me expects %20, not '+'
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// OrderSummary is the message the customer sends the store to confirm an
// order over WhatsApp. The shipping fee is whatever the total adds on top
// of the items.
func OrderSummary(o *orders.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá! Gostaria de confirmar meu pedido #%d\n\n", o.ID)
	items := decimal.Zero
	for _, it := range o.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = items.Add(line)
		fmt.Fprintf(&b, "• %s (Tam: %s) x%d - %s\n", it.Name, it.SelectedSize, it.Quantity, money.Format(line))
	}
	fee := "Grátis"
	if f := o.Total.Sub(items); f.IsPositive() {
		fee = money.Format(f)
	}
	fmt.Fprintf(&b, "\nFrete: %s\n", fee)
	fmt.Fprintf(&b, "Total: %s\n\n", money.Format(o.Total))

	c := o.Customer
	a := c.Address
	fmt.Fprintf(&b, "Nome: %s\n", c.Name)
	address := fmt.Sprintf("%s, %s", a.Street, a.Number)
	if a.Complement != "" {
		address += " " + a.Complement
	}
	fmt.Fprintf(&b, "Endereço: %s - %s, %s/%s - CEP %s\n", address, a.Neighborhood, a.City, a.State, a.Zip)
	fmt.Fprintf(&b, "Pagamento: %s", o.PaymentMethod)
	return b.String()
}
