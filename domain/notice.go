package domain

import (
	"context"
	"fmt"
)

// Severity mirrors the toast levels shown to the shopper.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// NoticeKind identifies which outcome a notice reports.
type NoticeKind string

const (
	NoticeAdded             NoticeKind = "added"
	NoticeOutOfStock        NoticeKind = "out_of_stock"
	NoticeInsufficientStock NoticeKind = "insufficient_stock"
	NoticeStockCheckFailed  NoticeKind = "stock_check_failed"
	NoticeMaxAvailable      NoticeKind = "max_available"
	NoticeInvalidQuantity   NoticeKind = "invalid_quantity"
)

// Notice is a fire-and-forget, user-visible outcome of a cart or card operation.
type Notice struct {
	Kind      NoticeKind
	Severity  Severity
	ProductID string
	Message   string
}

// Notifier is the notification sink. Implementations must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// NoticeAddedToCart creates the success notice for a completed add
func NoticeAddedToCart(productID string) Notice {
	return Notice{Kind: NoticeAdded, Severity: SeveritySuccess, ProductID: productID, Message: "Added to cart"}
}

// NoticeNowOutOfStock creates the notice for a product the oracle reports as sold out
func NoticeNowOutOfStock(productID string) Notice {
	return Notice{Kind: NoticeOutOfStock, Severity: SeverityError, ProductID: productID, Message: "This product is now out of stock"}
}

// NoticeOnlyAvailable creates the notice for a request larger than current stock
func NoticeOnlyAvailable(productID string, available int) Notice {
	return Notice{
		Kind:      NoticeInsufficientStock,
		Severity:  SeverityError,
		ProductID: productID,
		Message:   fmt.Sprintf("Only %d items available", available),
	}
}

// NoticeOnlyAvailableWithCart creates the notice for a request that fits current
// stock on its own but not together with what the cart already holds
func NoticeOnlyAvailableWithCart(productID string, available, inCart int) Notice {
	return Notice{
		Kind:      NoticeInsufficientStock,
		Severity:  SeverityError,
		ProductID: productID,
		Message:   fmt.Sprintf("Only %d items available, %d already in cart", available, inCart),
	}
}

// NoticeAvailabilityCheckFailed creates the notice for a failed stock lookup
func NoticeAvailabilityCheckFailed(productID string) Notice {
	return Notice{Kind: NoticeStockCheckFailed, Severity: SeverityError, ProductID: productID, Message: "Failed to check availability"}
}

// NoticeMaximumAvailable creates the notice for an update clamped at the line's stock
func NoticeMaximumAvailable(productID string, max int) Notice {
	return Notice{
		Kind:      NoticeMaxAvailable,
		Severity:  SeverityInfo,
		ProductID: productID,
		Message:   fmt.Sprintf("Maximum available: %d", max),
	}
}

// NoticeQuantityTooLow creates the notice for a quantity below 1
func NoticeQuantityTooLow(productID string) Notice {
	return Notice{Kind: NoticeInvalidQuantity, Severity: SeverityError, ProductID: productID, Message: "Quantity must be at least 1"}
}
