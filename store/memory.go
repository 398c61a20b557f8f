// Package store provides product service implementations for the storefront.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pharmacy/domain"
)

// MemorySource is a thread-safe in-memory domain.ProductSource that keeps insertion order.
type MemorySource struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
}

// NewMemorySource constructs a MemorySource seeded with the given products.
func NewMemorySource(products ...domain.Product) (*MemorySource, error) {
	s := &MemorySource{
		products: make(map[string]domain.Product),
	}
	if err := s.Import(context.Background(), products); err != nil {
		return nil, err
	}
	return s, nil
}

// compile-time assertions
var (
	_ domain.ProductSource = (*MemorySource)(nil)
	_ domain.StockSetter   = (*MemorySource)(nil)
)

func (s *MemorySource) List(ctx context.Context) ([]domain.Product, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out, nil
}

func (s *MemorySource) Get(ctx context.Context, id string) (domain.Product, error) {
	select {
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.NewProductNotFoundError(id)
	}
	return p, nil
}

// Put inserts or replaces a product. New products are appended to the listing order.
func (s *MemorySource) Put(ctx context.Context, product domain.Product) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := ValidateProduct(product); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.putLocked(product)
	return nil
}

func (s *MemorySource) putLocked(product domain.Product) {
	if _, exists := s.products[product.ID]; !exists {
		s.order = append(s.order, product.ID)
	}
	s.products[product.ID] = product
}

// SetStock overwrites the stock figure for one product.
func (s *MemorySource) SetStock(ctx context.Context, id string, quantity int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if quantity < 0 {
		return domain.NewInvalidProductError("stockQuantity", "must be at least 0", quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.NewProductNotFoundError(id)
	}
	p.StockQuantity = quantity
	s.products[id] = p
	return nil
}

// Import validates and adds products in order. Invalid records and ids already present
// are skipped; every skip is reported in the returned error.
func (s *MemorySource) Import(ctx context.Context, products []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, p := range products {
		if err := ValidateProduct(p); err != nil {
			errs = append(errs, fmt.Errorf("id=%s: %w", p.ID, err))
			continue
		}
		if _, exists := s.products[p.ID]; exists {
			errs = append(errs, domain.NewDuplicateProductError(p.ID))
			continue
		}
		s.putLocked(p)
	}
	return errors.Join(errs...)
}
