package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pharmacy/domain"
)

func TestFileSource_LoadSetStockReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	payload := `[
		{"id": 1, "name": "Panadol Cold & Flu", "description": "Relief", "category": "Cold", "price": 45.5, "discount": 10, "stockQuantity": 4},
		{"id": 2, "name": "", "price": 3, "stockQuantity": 1},
		{"id": "3", "name": "Vitamin C", "category": 7, "price": "12.00", "stockQuantity": 9}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}
	if len(s.Rejected()) != 1 {
		t.Fatalf("expected one rejected record, got %v", s.Rejected())
	}

	ctx := context.Background()
	got, err := s.Get(ctx, "3")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.HasCategory() {
		t.Fatalf("non-string category should be dropped, got %q", got.Category)
	}

	if err := s.SetStock(ctx, "1", 0); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}

	reloaded, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	p, err := reloaded.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get after reload failed: %v", err)
	}
	if p.StockQuantity != 0 {
		t.Fatalf("expected persisted stock 0, got %d", p.StockQuantity)
	}
	if p.Discount == nil || p.Discount.IntPart() != 10 {
		t.Fatalf("expected discount to survive the round trip, got %v", p.Discount)
	}

	list, _ := reloaded.List(ctx)
	if len(list) != 2 || list[0].ID != "1" || list[1].ID != "3" {
		t.Fatalf("unexpected order after reload: %+v", list)
	}
}

func TestFileSource_MissingAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSource(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("missing file should be fine: %v", err)
	}
	if out, _ := s.List(context.Background()); len(out) != 0 {
		t.Fatalf("expected empty source")
	}

	broken := filepath.Join(dir, "broken.json")
	_ = os.WriteFile(broken, []byte("this is not json"), 0o644)
	if _, err := NewFileSource(broken); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}

func TestFileSource_PutPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "products.json")
	s, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), product("n1", "Nasal Spray", 30, 2, "Cold")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	reloaded, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reloaded.Get(context.Background(), "n1"); err != nil {
		t.Fatalf("expected persisted product: %v", err)
	}
	if err := s.Put(context.Background(), domain.Product{ID: "bad"}); !domain.IsInvalidProductError(err) {
		t.Fatalf("expected InvalidProductError, got %v", err)
	}
}
