package cart

import (
	"github.com/shopspring/decimal"
)

// EmptyCartMessage is shown when the cart has no lines.
const EmptyCartMessage = "Your cart is empty"

// Subtotal sums effective price times quantity over all lines, rounded to cents.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

// ItemCount is the badge number: total units across lines.
func ItemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// LineTotal is the effective price of one line times its quantity, rounded to cents.
func LineTotal(l Line) decimal.Decimal {
	return l.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// View is the read-only rendering model of the cart.
type View struct {
	Lines        []Line
	Subtotal     decimal.Decimal
	ItemCount    int
	EmptyMessage string
}

func (v View) Empty() bool { return len(v.Lines) == 0 }

// Present derives the view of s.
func Present(s State) View {
	lines := s.Lines()
	v := View{Lines: lines, Subtotal: Subtotal(lines), ItemCount: ItemCount(lines)}
	if len(lines) == 0 {
		v.EmptyMessage = EmptyCartMessage
	}
	return v
}

// FormatMoney renders an amount with two decimals after the currency symbol, e.g. "E£12.50".
func FormatMoney(currency string, amount decimal.Decimal) string {
	return currency + amount.StringFixed(2)
}
