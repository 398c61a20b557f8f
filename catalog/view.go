package catalog

import (
	"sync"

	"pharmacy/domain"
)

// View tracks the shopper's search and category selection over a catalog and
// recomputes the visible products only when an input changed.
type View struct {
	mu       sync.Mutex
	catalog  *Catalog
	search   string
	category string
	visible  []domain.Product
	stale    bool
}

func NewView(c *Catalog) *View {
	if c == nil {
		c = Empty()
	}
	return &View{catalog: c, category: AllCategories, stale: true}
}

// SetCatalog swaps the underlying snapshot, e.g. once the listing arrives.
func (v *View) SetCatalog(c *Catalog) {
	if c == nil {
		c = Empty()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.catalog = c
	v.stale = true
}

func (v *View) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if term != v.search {
		v.search = term
		v.stale = true
	}
}

// SetCategory selects a category; an empty value selects "all".
func (v *View) SetCategory(category string) {
	if category == "" {
		category = AllCategories
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if category != v.category {
		v.category = category
		v.stale = true
	}
}

func (v *View) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

func (v *View) Category() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.category
}

// Visible returns the filtered products.
func (v *View) Visible() []domain.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stale {
		v.visible = Filter(v.catalog.products, v.search, v.category)
		v.stale = false
	}
	out := make([]domain.Product, len(v.visible))
	copy(out, v.visible)
	return out
}

// Categories are derived from the catalog, not from the current filter.
func (v *View) Categories() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.catalog.Categories()
}

// EmptyMessage explains an empty result; it returns "" when products are visible.
func (v *View) EmptyMessage() string {
	visible := v.Visible()
	if len(visible) > 0 {
		return ""
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return EmptyMessage(v.catalog.Len(), v.search)
}
