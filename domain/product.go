// Package domain defines core business types and interfaces.
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product represents a pharmacy catalog product as served by the product service.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	FinalPrice    *decimal.Decimal `json:"finalPrice,omitempty"`
	StockQuantity int              `json:"stockQuantity"`
	ImageURL      string           `json:"imageUrl,omitempty"`
}

// HasCategory reports whether the product carries a usable category.
func (p Product) HasCategory() bool {
	return p.Category != ""
}

// HasDiscount reports whether a non-zero discount percentage applies.
func (p Product) HasDiscount() bool {
	return p.Discount != nil && p.Discount.IsPositive()
}

// EffectivePrice returns the unit price after the discount percentage.
// A precomputed FinalPrice wins over the price/discount pair.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.FinalPrice != nil && p.FinalPrice.IsPositive() {
		return *p.FinalPrice
	}
	return DiscountedPrice(p.Price, p.Discount)
}

// DiscountedPrice computes price * (1 - discount/100). A nil discount means none.
func DiscountedPrice(price decimal.Decimal, discount *decimal.Decimal) decimal.Decimal {
	if discount == nil || discount.IsZero() {
		return price
	}
	return price.Sub(price.Mul(*discount).Div(hundred))
}

// ProductSource is the contract of the external product service.
// List returns every product in service order; Get returns the current record for one id.
type ProductSource interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
}

// StockSetter is implemented by sources whose stock figures can be adjusted locally.
type StockSetter interface {
	SetStock(ctx context.Context, id string, quantity int) error
}
