// Package catalog holds the per-visit product snapshot and derives the visible subset of it.
package catalog

import (
	"context"
	"fmt"
	"time"

	"pharmacy/domain"
)

// Catalog is the immutable product snapshot fetched once per page visit.
type Catalog struct {
	products   []domain.Product
	index      map[string]int
	categories []string
	loadedAt   time.Time
}

// New builds a catalog from products in service order. The slice is copied.
func New(products []domain.Product) *Catalog {
	c := &Catalog{
		products: make([]domain.Product, len(products)),
		index:    make(map[string]int, len(products)),
		loadedAt: time.Now(),
	}
	copy(c.products, products)
	for i, p := range c.products {
		if _, dup := c.index[p.ID]; !dup {
			c.index[p.ID] = i
		}
	}
	c.categories = Categories(c.products)
	return c
}

// Empty returns a catalog with no products, used when the listing fetch fails.
func Empty() *Catalog {
	return New(nil)
}

// Load fetches the full listing from src in a single attempt.
func Load(ctx context.Context, src domain.ProductSource) (*Catalog, error) {
	products, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(products), nil
}

// Products returns a copy of every product in service order.
func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Get returns the cached record for id. The stock figure may be stale.
func (c *Catalog) Get(id string) (domain.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Categories returns the selectable categories, starting with the "all" sentinel.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}
