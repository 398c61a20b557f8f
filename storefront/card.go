package storefront

import (
	"context"
	"strconv"

	"pharmacy/cart"
	"pharmacy/domain"
)

// Card is the display model of one product tile.
type Card struct {
	Product  domain.Product
	Quantity int
	// OutOfStock disables adding.
	OutOfStock bool
	// Added is true while the transient "Added" indicator is showing.
	Added         bool
	Price         string
	OriginalPrice string
	DiscountBadge string
	StockLabel    string
	ImageURL      string
}

// Cards renders the visible products.
func (s *Storefront) Cards() []Card {
	visible := s.view.Visible()
	out := make([]Card, 0, len(visible))
	for _, p := range visible {
		out = append(out, s.card(p))
	}
	return out
}

// Card renders one catalog product.
func (s *Storefront) Card(productID string) (Card, error) {
	p, ok := s.Catalog().Get(productID)
	if !ok {
		return Card{}, domain.NewProductNotFoundError(productID)
	}
	return s.card(p), nil
}

func (s *Storefront) card(p domain.Product) Card {
	s.mu.Lock()
	st := s.cardLocked(p)
	c := Card{
		Product:    p,
		Quantity:   st.quantity,
		OutOfStock: st.outOfStock,
		Added:      s.now().Before(st.addedUntil),
	}
	s.mu.Unlock()

	c.Price = s.FormatMoney(domain.DiscountedPrice(p.Price, p.Discount))
	if p.HasDiscount() {
		c.OriginalPrice = s.FormatMoney(p.Price)
		c.DiscountBadge = p.Discount.String() + "% OFF"
	}
	if c.OutOfStock {
		c.StockLabel = "Out of stock"
	} else {
		c.StockLabel = strconv.Itoa(p.StockQuantity) + " items in stock"
	}
	c.ImageURL = p.ImageURL
	if c.ImageURL == "" {
		c.ImageURL = s.session.DefaultImageURL
	}
	return c
}

func (s *Storefront) cardLocked(p domain.Product) *cardState {
	st, ok := s.cards[p.ID]
	if !ok {
		st = &cardState{quantity: 1, outOfStock: p.StockQuantity == 0}
		s.cards[p.ID] = st
	}
	return st
}

// SetQuantity changes a card's selector. Values below 1 are ignored; values above the
// listed stock are refused with a "Maximum available" notice.
func (s *Storefront) SetQuantity(ctx context.Context, productID string, n int) error {
	p, ok := s.Catalog().Get(productID)
	if !ok {
		return domain.NewProductNotFoundError(productID)
	}
	if n < 1 {
		return nil
	}
	if p.StockQuantity > 0 && n > p.StockQuantity {
		s.notify.Notify(ctx, domain.NoticeMaximumAvailable(productID, p.StockQuantity))
		return domain.NewMaxQuantityError(productID, n, p.StockQuantity)
	}
	s.mu.Lock()
	s.cardLocked(p).quantity = n
	s.mu.Unlock()
	return nil
}

// AddToCart adds the card's selected quantity. On success the selector resets to 1
// and the "Added" indicator shows; the card turns out of stock when the fresh stock
// is exhausted by this add or reported as zero.
func (s *Storefront) AddToCart(ctx context.Context, productID string) (cart.Line, error) {
	p, ok := s.Catalog().Get(productID)
	if !ok {
		return cart.Line{}, domain.NewProductNotFoundError(productID)
	}
	ctx = s.log.WithSessionID(ctx, s.session.ID.String())

	s.mu.Lock()
	st := s.cardLocked(p)
	if st.outOfStock {
		s.mu.Unlock()
		return cart.Line{}, domain.NewOutOfStockError(productID)
	}
	quantity := st.quantity
	s.mu.Unlock()

	line, err := s.cart.Add(ctx, p, quantity)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err == nil:
		st.quantity = 1
		st.addedUntil = s.now().Add(s.session.AddedIndicator)
		if line.Product.Stock-quantity == 0 {
			st.outOfStock = true
		}
	case domain.IsOutOfStockError(err):
		st.outOfStock = true
	}
	return line, err
}

// UpdateCart sets a cart line's quantity; below 1 removes it.
func (s *Storefront) UpdateCart(ctx context.Context, productID string, n int) error {
	return s.cart.Update(s.log.WithSessionID(ctx, s.session.ID.String()), productID, n)
}

func (s *Storefront) RemoveFromCart(ctx context.Context, productID string) error {
	return s.cart.Remove(s.log.WithSessionID(ctx, s.session.ID.String()), productID)
}
