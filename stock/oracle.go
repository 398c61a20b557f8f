// Package stock re-validates availability against the product service at the moment
// a cart mutation is about to be committed.
package stock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"pharmacy/domain"
	"pharmacy/logger"
	"pharmacy/metrics"
)

const defaultTimeout = 3 * time.Second

// Checker reports the current stock of one product.
type Checker interface {
	CurrentStock(ctx context.Context, productID string) (int, error)
}

// Oracle asks the product detail endpoint for a fresh record on every check.
// Concurrent checks for the same id share one request.
type Oracle struct {
	source  domain.ProductSource
	timeout time.Duration
	group   singleflight.Group
	log     *logger.Logger
	metrics *metrics.Metrics
}

type Option func(*Oracle)

func WithTimeout(d time.Duration) Option {
	return func(o *Oracle) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(o *Oracle) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Oracle) { o.metrics = m }
}

var _ Checker = (*Oracle)(nil)

func NewOracle(source domain.ProductSource, opts ...Option) (*Oracle, error) {
	if source == nil {
		return nil, fmt.Errorf("product source required")
	}
	o := &Oracle{source: source, timeout: defaultTimeout, log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// CurrentStock fetches the product's current stockQuantity. The caller's context bounds
// how long it waits; the shared request itself is bounded by the oracle timeout.
func (o *Oracle) CurrentStock(ctx context.Context, productID string) (int, error) {
	start := time.Now()
	ch := o.group.DoChan(productID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
		defer cancel()
		p, err := o.source.Get(fetchCtx, productID)
		if err != nil {
			return 0, err
		}
		return p.StockQuantity, nil
	})

	select {
	case <-ctx.Done():
		o.metrics.ObserveStockCheck("canceled", time.Since(start))
		return 0, domain.NewStockCheckError(productID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			o.metrics.ObserveStockCheck("error", time.Since(start))
			o.log.Warn(o.log.WithProductID(ctx, productID), "stock check failed", res.Err)
			return 0, domain.NewStockCheckError(productID, res.Err)
		}
		o.metrics.ObserveStockCheck("ok", time.Since(start))
		return res.Val.(int), nil
	}
}
