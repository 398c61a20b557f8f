package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"pharmacy/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// wireProduct is the loosely typed shape the product service sends.
type wireProduct struct {
	ID            json.RawMessage  `json:"id"`
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Category      json.RawMessage  `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	Discount      *decimal.Decimal `json:"discount"`
	FinalPrice    *decimal.Decimal `json:"finalPrice"`
	StockQuantity *json.Number     `json:"stockQuantity"`
	ImageURL      *string          `json:"imageUrl"`
}

// candidate carries the normalized fields that are checked before a record is accepted.
type candidate struct {
	ID            string           `json:"id" validate:"required"`
	Name          string           `json:"name" validate:"required"`
	Price         decimal.Decimal  `json:"price" validate:"gte=0"`
	Discount      *decimal.Decimal `json:"discount" validate:"omitempty,gte=0,lte=100"`
	FinalPrice    *decimal.Decimal `json:"finalPrice" validate:"omitempty,gte=0"`
	StockQuantity int              `json:"stockQuantity" validate:"gte=0"`
}

// DecodeProducts normalizes a listing payload. Malformed records and repeated ids are
// dropped and reported in rejected; service order is preserved for the rest.
func DecodeProducts(data []byte) (products []domain.Product, rejected []error, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return nil, nil, fmt.Errorf("decode product list: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	products = make([]domain.Product, 0, len(raw))
	for i, item := range raw {
		p, err := decodeRecord(item)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			rejected = append(rejected, fmt.Errorf("record %d: %w", i, domain.NewDuplicateProductError(p.ID)))
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	return products, rejected, nil
}

// DecodeProduct normalizes a single-product payload.
func DecodeProduct(data []byte) (domain.Product, error) {
	return decodeRecord(bytes.TrimSpace(data))
}

func decodeRecord(data []byte) (domain.Product, error) {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Product{}, domain.NewInvalidProductError("record", "malformed json", err.Error())
	}

	id, err := normalizeID(w.ID)
	if err != nil {
		return domain.Product{}, err
	}

	c := candidate{ID: id, Discount: w.Discount, FinalPrice: w.FinalPrice}
	if w.Name != nil {
		c.Name = strings.TrimSpace(*w.Name)
	}
	if w.Price != nil {
		c.Price = *w.Price
	} else {
		return domain.Product{}, domain.NewInvalidProductError("price", "is required", nil)
	}
	if w.StockQuantity != nil {
		qty, err := w.StockQuantity.Int64()
		if err != nil {
			return domain.Product{}, domain.NewInvalidProductError("stockQuantity", "must be an integer", w.StockQuantity.String())
		}
		c.StockQuantity = int(qty)
	}

	if err := validateCandidate(c); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:            c.ID,
		Name:          c.Name,
		Category:      normalizeCategory(w.Category),
		Price:         c.Price,
		Discount:      c.Discount,
		FinalPrice:    c.FinalPrice,
		StockQuantity: c.StockQuantity,
	}
	if w.Description != nil {
		p.Description = *w.Description
	}
	if w.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*w.ImageURL)
	}
	return p, nil
}

// ValidateProduct applies the boundary rules to an already typed product.
func ValidateProduct(p domain.Product) error {
	return validateCandidate(candidate{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Discount:      p.Discount,
		FinalPrice:    p.FinalPrice,
		StockQuantity: p.StockQuantity,
	})
}

func validateCandidate(c candidate) error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			fe := errs[0]
			return domain.NewInvalidProductError(fe.Field(), validationMessage(fe), fe.Value())
		}
		return domain.NewInvalidProductError("record", "validation failed", err.Error())
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

// normalizeID accepts numeric or string ids.
func normalizeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", domain.NewInvalidProductError("id", "is required", nil)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", domain.NewInvalidProductError("id", "malformed string", string(raw))
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", domain.NewInvalidProductError("id", "is required", s)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", domain.NewInvalidProductError("id", "must be a string or number", string(raw))
	}
	return n.String(), nil
}

// normalizeCategory keeps string categories only; anything else counts as absent.
func normalizeCategory(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
