// Package cart holds the session's shopping cart: an explicit reducer over immutable
// state plus the Cart that guards additions with a fresh stock check.
package cart

import (
	"github.com/shopspring/decimal"

	"pharmacy/domain"
)

// Snapshot is the copy of a product taken when it enters the cart. Later catalog
// changes do not alter it. Stock is the last-known stock figure for the product.
type Snapshot struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Discount   *decimal.Decimal
	FinalPrice *decimal.Decimal
	ImageURL   string
	Stock      int
}

// SnapshotOf copies the display fields of p, including the values behind its pointers.
func SnapshotOf(p domain.Product) Snapshot {
	return Snapshot{
		ID:         p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Discount:   copyDecimal(p.Discount),
		FinalPrice: copyDecimal(p.FinalPrice),
		ImageURL:   p.ImageURL,
		Stock:      p.StockQuantity,
	}
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// EffectivePrice prefers a precomputed final price over price and discount.
func (s Snapshot) EffectivePrice() decimal.Decimal {
	return domain.Product{Price: s.Price, Discount: s.Discount, FinalPrice: s.FinalPrice}.EffectivePrice()
}

// Line is one cart entry. Quantity is always at least 1.
type Line struct {
	Product  Snapshot
	Quantity int
}

// State is an immutable, insertion-ordered set of lines with unique product ids.
// The zero value is an empty cart.
type State struct {
	lines []Line
}

// Lines returns a copy of the lines in insertion order.
func (s State) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s State) Len() int { return len(s.lines) }

func (s State) Get(productID string) (Line, bool) {
	if i := s.index(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Quantity returns the quantity held for productID, or 0.
func (s State) Quantity(productID string) int {
	if i := s.index(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

func (s State) index(productID string) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Action is one transition request. Add uses Product and Quantity; Update uses
// ProductID and Quantity; Remove uses ProductID.
type Action struct {
	Op        Op
	Product   Snapshot
	ProductID string
	Quantity  int
}

func AddAction(p Snapshot, quantity int) Action {
	return Action{Op: OpAdd, Product: p, ProductID: p.ID, Quantity: quantity}
}

func UpdateAction(productID string, quantity int) Action {
	return Action{Op: OpUpdate, ProductID: productID, Quantity: quantity}
}

func RemoveAction(productID string) Action {
	return Action{Op: OpRemove, ProductID: productID}
}

// Reduce applies a to s and returns the next state; s is never modified.
//
//	absent     --add(q)-->        present(q)
//	present(n) --add(q)-->        present(n+q)   stock figure refreshed
//	present(n) --update(m>=1)-->  present(m)
//	present(n) --update(m<1)-->   absent
//	present(n) --remove-->        absent
//
// Anything else, including actions on absent lines other than add and adds with
// quantity below 1, leaves the state unchanged. Stock checks are not the reducer's job.
func Reduce(s State, a Action) State {
	switch a.Op {
	case OpAdd:
		if a.Quantity < 1 || a.Product.ID == "" {
			return s
		}
		i := s.index(a.Product.ID)
		if i < 0 {
			next := s.Lines()
			return State{lines: append(next, Line{Product: a.Product, Quantity: a.Quantity})}
		}
		next := s.Lines()
		next[i].Quantity += a.Quantity
		next[i].Product.Stock = a.Product.Stock
		return State{lines: next}

	case OpUpdate:
		if a.Quantity < 1 {
			return Reduce(s, RemoveAction(a.ProductID))
		}
		i := s.index(a.ProductID)
		if i < 0 || s.lines[i].Quantity == a.Quantity {
			return s
		}
		next := s.Lines()
		next[i].Quantity = a.Quantity
		return State{lines: next}

	case OpRemove:
		i := s.index(a.ProductID)
		if i < 0 {
			return s
		}
		next := make([]Line, 0, len(s.lines)-1)
		next = append(next, s.lines[:i]...)
		return State{lines: append(next, s.lines[i+1:]...)}
	}
	return s
}
