// Package domain defines error types for the pharmacy storefront.
package domain

import (
	"errors"
	"fmt"
)

// ProductNotFoundError is returned when a product with the given ID is not found
type ProductNotFoundError struct {
	ProductID string
}

// Error implements the error interface for ProductNotFoundError
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: id=%s", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *ProductNotFoundError) Is(target error) bool {
	_, ok := target.(*ProductNotFoundError)
	return ok
}

// InvalidProductError is returned when a fetched record fails boundary validation
type InvalidProductError struct {
	Field  string
	Reason string
	Value  interface{}
}

// Error implements the error interface for InvalidProductError
func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

// Is allows proper error type checking with errors.Is()
func (e *InvalidProductError) Is(target error) bool {
	_, ok := target.(*InvalidProductError)
	return ok
}

// DuplicateProductError is returned when a listing carries the same ID twice
type DuplicateProductError struct {
	ProductID string
}

// Error implements the error interface for DuplicateProductError
func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("duplicate product: id=%s already exists", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *DuplicateProductError) Is(target error) bool {
	_, ok := target.(*DuplicateProductError)
	return ok
}

// InvalidQuantityError is returned when a cart quantity is below the minimum of 1
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: id=%s, quantity=%d, minimum=1", e.ProductID, e.Quantity)
}

func (e *InvalidQuantityError) Is(target error) bool {
	_, ok := target.(*InvalidQuantityError)
	return ok
}

// OutOfStockError is returned when the stock check reports zero units
type OutOfStockError struct {
	ProductID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: id=%s", e.ProductID)
}

func (e *OutOfStockError) Is(target error) bool {
	_, ok := target.(*OutOfStockError)
	return ok
}

// InsufficientStockError is returned when the requested quantity exceeds current stock.
// InCart is the quantity already held by the cart line, if any.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
	InCart    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: id=%s, requested=%d, in_cart=%d, available=%d",
		e.ProductID, e.Requested, e.InCart, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	_, ok := target.(*InsufficientStockError)
	return ok
}

// StockCheckError is returned when current availability could not be fetched
type StockCheckError struct {
	ProductID string
	Err       error
}

func (e *StockCheckError) Error() string {
	return fmt.Sprintf("stock check failed: id=%s: %v", e.ProductID, e.Err)
}

func (e *StockCheckError) Unwrap() error { return e.Err }

func (e *StockCheckError) Is(target error) bool {
	_, ok := target.(*StockCheckError)
	return ok
}

// MaxQuantityError is returned when an update asks for more than the last-known stock
type MaxQuantityError struct {
	ProductID string
	Requested int
	Max       int
}

func (e *MaxQuantityError) Error() string {
	return fmt.Sprintf("quantity above maximum: id=%s, requested=%d, max=%d", e.ProductID, e.Requested, e.Max)
}

func (e *MaxQuantityError) Is(target error) bool {
	_, ok := target.(*MaxQuantityError)
	return ok
}

// CartClosedError is returned when an operation completes after the cart was discarded
type CartClosedError struct{}

func (e *CartClosedError) Error() string { return "cart closed" }

func (e *CartClosedError) Is(target error) bool {
	_, ok := target.(*CartClosedError)
	return ok
}

// FetchError is returned when the product service answers with a failure
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s: status=%d", e.Op, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	_, ok := target.(*FetchError)
	return ok
}

// Helper functions for creating errors with context

// NewProductNotFoundError creates a new ProductNotFoundError
func NewProductNotFoundError(productID string) error {
	return &ProductNotFoundError{ProductID: productID}
}

// NewInvalidProductError creates a new InvalidProductError
func NewInvalidProductError(field, reason string, value interface{}) error {
	return &InvalidProductError{
		Field:  field,
		Reason: reason,
		Value:  value,
	}
}

// NewDuplicateProductError creates a new DuplicateProductError
func NewDuplicateProductError(productID string) error {
	return &DuplicateProductError{ProductID: productID}
}

// NewInvalidQuantityError creates a new InvalidQuantityError
func NewInvalidQuantityError(productID string, quantity int) error {
	return &InvalidQuantityError{ProductID: productID, Quantity: quantity}
}

// NewOutOfStockError creates a new OutOfStockError
func NewOutOfStockError(productID string) error {
	return &OutOfStockError{ProductID: productID}
}

// NewInsufficientStockError creates a new InsufficientStockError
func NewInsufficientStockError(productID string, requested, available, inCart int) error {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
		InCart:    inCart,
	}
}

// NewStockCheckError creates a new StockCheckError
func NewStockCheckError(productID string, err error) error {
	return &StockCheckError{ProductID: productID, Err: err}
}

// NewMaxQuantityError creates a new MaxQuantityError
func NewMaxQuantityError(productID string, requested, max int) error {
	return &MaxQuantityError{ProductID: productID, Requested: requested, Max: max}
}

// Type assertion helpers for use with errors.As()

// IsProductNotFoundError checks if an error is a ProductNotFoundError
func IsProductNotFoundError(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf)
}

// IsInvalidProductError checks if an error is an InvalidProductError
func IsInvalidProductError(err error) bool {
	var ipe *InvalidProductError
	return errors.As(err, &ipe)
}

// IsDuplicateProductError checks if an error is a DuplicateProductError
func IsDuplicateProductError(err error) bool {
	var dpe *DuplicateProductError
	return errors.As(err, &dpe)
}

// IsInvalidQuantityError checks if an error is an InvalidQuantityError
func IsInvalidQuantityError(err error) bool {
	var iqe *InvalidQuantityError
	return errors.As(err, &iqe)
}

// IsOutOfStockError checks if an error is an OutOfStockError
func IsOutOfStockError(err error) bool {
	var oos *OutOfStockError
	return errors.As(err, &oos)
}

// IsInsufficientStockError checks if an error is an InsufficientStockError
func IsInsufficientStockError(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}

// IsStockCheckError checks if an error is a StockCheckError
func IsStockCheckError(err error) bool {
	var sce *StockCheckError
	return errors.As(err, &sce)
}

// IsMaxQuantityError checks if an error is a MaxQuantityError
func IsMaxQuantityError(err error) bool {
	var mqe *MaxQuantityError
	return errors.As(err, &mqe)
}

// IsCartClosedError checks if an error is a CartClosedError
func IsCartClosedError(err error) bool {
	var cce *CartClosedError
	return errors.As(err, &cce)
}

// IsFetchError checks if an error is a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
