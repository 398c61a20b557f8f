package domain

import (
	"errors"
	"testing"
)

func TestProductNotFoundError(t *testing.T) {
	t.Run("Error message formatting", func(t *testing.T) {
		err := NewProductNotFoundError("prod-123")
		expected := "product not found: id=prod-123"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("errors.Is detection", func(t *testing.T) {
		err := NewProductNotFoundError("prod-123")
		target := &ProductNotFoundError{}
		if !errors.Is(err, target) {
			t.Error("errors.Is should detect ProductNotFoundError")
		}
	})

	t.Run("errors.As conversion", func(t *testing.T) {
		err := NewProductNotFoundError("prod-456")
		var pnf *ProductNotFoundError
		if !errors.As(err, &pnf) {
			t.Fatal("errors.As should convert to ProductNotFoundError")
		}
		if pnf.ProductID != "prod-456" {
			t.Errorf("expected ProductID prod-456, got %s", pnf.ProductID)
		}
	})

	t.Run("IsProductNotFoundError helper", func(t *testing.T) {
		err := NewProductNotFoundError("prod-789")
		if !IsProductNotFoundError(err) {
			t.Error("IsProductNotFoundError should return true")
		}
	})
}

func TestInvalidProductError(t *testing.T) {
	t.Run("Error message formatting", func(t *testing.T) {
		err := NewInvalidProductError("price", "must be positive", -10.5)
		expected := "invalid product: field=price, reason=must be positive, value=-10.5"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("errors.Is detection", func(t *testing.T) {
		err := NewInvalidProductError("name", "cannot be empty", "")
		target := &InvalidProductError{}
		if !errors.Is(err, target) {
			t.Error("errors.Is should detect InvalidProductError")
		}
	})

	t.Run("errors.As conversion", func(t *testing.T) {
		err := NewInvalidProductError("quantity", "must be non-negative", -5)
		var ipe *InvalidProductError
		if !errors.As(err, &ipe) {
			t.Fatal("errors.As should convert to InvalidProductError")
		}
		if ipe.Field != "quantity" || ipe.Reason != "must be non-negative" {
			t.Errorf("error fields not correctly preserved")
		}
	})

	t.Run("IsInvalidProductError helper", func(t *testing.T) {
		err := NewInvalidProductError("category", "invalid category", "Unknown")
		if !IsInvalidProductError(err) {
			t.Error("IsInvalidProductError should return true")
		}
	})
}

func TestDuplicateProductError(t *testing.T) {
	t.Run("Error message formatting", func(t *testing.T) {
		err := NewDuplicateProductError("prod-001")
		expected := "duplicate product: id=prod-001 already exists"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("errors.Is detection", func(t *testing.T) {
		err := NewDuplicateProductError("prod-002")
		target := &DuplicateProductError{}
		if !errors.Is(err, target) {
			t.Error("errors.Is should detect DuplicateProductError")
		}
	})

	t.Run("errors.As conversion", func(t *testing.T) {
		err := NewDuplicateProductError("prod-003")
		var dpe *DuplicateProductError
		if !errors.As(err, &dpe) {
			t.Fatal("errors.As should convert to DuplicateProductError")
		}
		if dpe.ProductID != "prod-003" {
			t.Errorf("expected ProductID prod-003, got %s", dpe.ProductID)
		}
	})

	t.Run("IsDuplicateProductError helper", func(t *testing.T) {
		err := NewDuplicateProductError("prod-004")
		if !IsDuplicateProductError(err) {
			t.Error("IsDuplicateProductError should return true")
		}
	})
}

func TestStockErrors(t *testing.T) {
	t.Run("InsufficientStockError message carries counts", func(t *testing.T) {
		err := NewInsufficientStockError("p-1", 5, 3, 0)
		expected := "insufficient stock: id=p-1, requested=5, in_cart=0, available=3"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
		var ise *InsufficientStockError
		if !errors.As(err, &ise) || ise.Available != 3 {
			t.Fatalf("errors.As should expose Available=3, got %+v", ise)
		}
	})

	t.Run("StockCheckError unwraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewStockCheckError("p-2", cause)
		if !errors.Is(err, cause) {
			t.Error("errors.Is should reach the wrapped cause")
		}
		if !IsStockCheckError(err) {
			t.Error("IsStockCheckError should return true")
		}
	})

	t.Run("FetchError formats status when no cause", func(t *testing.T) {
		err := &FetchError{Op: "fetch products", Status: 503}
		expected := "failed to fetch products: status=503"
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("MaxQuantityError helper", func(t *testing.T) {
		err := NewMaxQuantityError("p-3", 9, 4)
		if !IsMaxQuantityError(err) {
			t.Error("IsMaxQuantityError should return true")
		}
	})
}

func TestErrorTypeDiscrimination(t *testing.T) {
	all := map[string]error{
		"not_found":    NewProductNotFoundError("p"),
		"invalid":      NewInvalidProductError("price", "negative", -5),
		"duplicate":    NewDuplicateProductError("p"),
		"quantity":     NewInvalidQuantityError("p", 0),
		"out_of_stock": NewOutOfStockError("p"),
		"insufficient": NewInsufficientStockError("p", 5, 3, 0),
		"stock_check":  NewStockCheckError("p", errors.New("boom")),
		"max":          NewMaxQuantityError("p", 5, 3),
		"closed":       &CartClosedError{},
		"fetch":        &FetchError{Op: "fetch", Status: 500},
	}
	checks := map[string]func(error) bool{
		"not_found":    IsProductNotFoundError,
		"invalid":      IsInvalidProductError,
		"duplicate":    IsDuplicateProductError,
		"quantity":     IsInvalidQuantityError,
		"out_of_stock": IsOutOfStockError,
		"insufficient": IsInsufficientStockError,
		"stock_check":  IsStockCheckError,
		"max":          IsMaxQuantityError,
		"closed":       IsCartClosedError,
		"fetch":        IsFetchError,
	}

	for name, err := range all {
		for checkName, check := range checks {
			want := name == checkName
			if got := check(err); got != want {
				t.Errorf("check %s on %s error: got %v, want %v", checkName, name, got, want)
			}
		}
	}
}
