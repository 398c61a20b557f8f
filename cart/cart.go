package cart

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"pharmacy/domain"
	"pharmacy/logger"
	"pharmacy/metrics"
	"pharmacy/stock"
)

// Cart is the Cart Store of one browsing session. It is safe for concurrent use.
// Add consults the stock checker before committing; Update and Remove trust the
// snapshot taken at add time.
type Cart struct {
	mu     sync.Mutex
	state  State
	closed bool

	locks    *keyedLock
	oracle   stock.Checker
	notifier domain.Notifier
	metrics  *metrics.Metrics
	log      *logger.Logger
}

type Option func(*Cart)

func WithNotifier(n domain.Notifier) Option {
	return func(c *Cart) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cart) { c.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Cart) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates an empty cart.
func New(oracle stock.Checker, opts ...Option) *Cart {
	c := &Cart{
		locks:    newKeyedLock(),
		oracle:   oracle,
		notifier: domain.NotifierFunc(func(context.Context, domain.Notice) {}),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add puts quantity units of p into the cart after re-validating stock with the
// checker. Adds for the same product are serialized so the fresh stock figure is
// compared against what the cart already holds. It returns the committed line;
// Line.Product.Stock carries the fresh stock figure.
func (c *Cart) Add(ctx context.Context, p domain.Product, quantity int) (Line, error) {
	ctx = c.log.WithFields(ctx, map[string]any{"product_id": p.ID, "quantity": quantity})

	if p.ID == "" {
		c.metrics.IncCartMutation(string(OpAdd), "invalid_product")
		return Line{}, domain.NewInvalidProductError("id", "is required", p.ID)
	}
	if quantity < 1 {
		return Line{}, c.reject(ctx, OpAdd, "invalid_quantity",
			domain.NewInvalidQuantityError(p.ID, quantity), domain.NoticeQuantityTooLow(p.ID))
	}
	if c.isClosed() {
		c.metrics.IncCartMutation(string(OpAdd), "closed")
		return Line{}, &domain.CartClosedError{}
	}

	unlock, err := c.locks.lock(ctx, p.ID)
	if err != nil {
		return Line{}, c.reject(ctx, OpAdd, "stock_check_failed",
			domain.NewStockCheckError(p.ID, err), domain.NoticeAvailabilityCheckFailed(p.ID))
	}
	defer unlock()

	available, err := c.oracle.CurrentStock(ctx, p.ID)
	if c.isClosed() {
		// late response after unmount
		c.metrics.IncCartMutation(string(OpAdd), "closed")
		c.log.Debug(ctx, "discarding stock check after cart closed")
		return Line{}, &domain.CartClosedError{}
	}
	if err != nil {
		if !domain.IsStockCheckError(err) {
			err = domain.NewStockCheckError(p.ID, err)
		}
		return Line{}, c.reject(ctx, OpAdd, "stock_check_failed", err, domain.NoticeAvailabilityCheckFailed(p.ID))
	}
	if available <= 0 {
		return Line{}, c.reject(ctx, OpAdd, "out_of_stock",
			domain.NewOutOfStockError(p.ID), domain.NoticeNowOutOfStock(p.ID))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.metrics.IncCartMutation(string(OpAdd), "closed")
		return Line{}, &domain.CartClosedError{}
	}
	inCart := c.state.Quantity(p.ID)
	if quantity > available || inCart+quantity > available {
		c.mu.Unlock()
		notice := domain.NoticeOnlyAvailable(p.ID, available)
		if quantity <= available {
			notice = domain.NoticeOnlyAvailableWithCart(p.ID, available, inCart)
		}
		return Line{}, c.reject(ctx, OpAdd, "insufficient_stock",
			domain.NewInsufficientStockError(p.ID, quantity, available, inCart), notice)
	}
	snap := SnapshotOf(p)
	snap.Stock = available
	c.state = Reduce(c.state, AddAction(snap, quantity))
	line, _ := c.state.Get(p.ID)
	c.mu.Unlock()

	c.metrics.IncCartMutation(string(OpAdd), "ok")
	c.log.Event(ctx, zerolog.InfoLevel).Int("stock", available).Int("line_quantity", line.Quantity).Msg("added to cart")
	c.notifier.Notify(ctx, domain.NoticeAddedToCart(p.ID))
	return line, nil
}

// Update sets the quantity of an existing line. A quantity below 1 removes the line.
// Quantities above the snapshot's stock figure are rejected. Updating an absent line
// is a no-op.
func (c *Cart) Update(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return c.Remove(ctx, productID)
	}
	ctx = c.log.WithFields(ctx, map[string]any{"product_id": productID, "quantity": quantity})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.metrics.IncCartMutation(string(OpUpdate), "closed")
		return &domain.CartClosedError{}
	}
	line, ok := c.state.Get(productID)
	if !ok {
		c.mu.Unlock()
		c.metrics.IncCartMutation(string(OpUpdate), "noop")
		return nil
	}
	if limit := line.Product.Stock; limit > 0 && quantity > limit {
		c.mu.Unlock()
		return c.reject(ctx, OpUpdate, "max_quantity",
			domain.NewMaxQuantityError(productID, quantity, limit), domain.NoticeMaximumAvailable(productID, limit))
	}
	c.state = Reduce(c.state, UpdateAction(productID, quantity))
	c.mu.Unlock()

	c.metrics.IncCartMutation(string(OpUpdate), "ok")
	c.log.Debug(ctx, "cart line updated")
	return nil
}

// Remove deletes the line for productID. Removing an absent line is a no-op.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.metrics.IncCartMutation(string(OpRemove), "closed")
		return &domain.CartClosedError{}
	}
	before := c.state.Len()
	c.state = Reduce(c.state, RemoveAction(productID))
	removed := c.state.Len() < before
	c.mu.Unlock()

	if !removed {
		c.metrics.IncCartMutation(string(OpRemove), "noop")
		return nil
	}
	c.metrics.IncCartMutation(string(OpRemove), "ok")
	c.log.Debug(c.log.WithProductID(ctx, productID), "cart line removed")
	return nil
}

// State returns the current immutable state.
func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cart) Lines() []Line {
	return c.State().Lines()
}

func (c *Cart) Get(productID string) (Line, bool) {
	return c.State().Get(productID)
}

// Close discards the cart. Operations after Close, including adds whose stock check
// was still in flight, return CartClosedError without touching state.
func (c *Cart) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state = State{}
}

func (c *Cart) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Cart) reject(ctx context.Context, op Op, outcome string, err error, notice domain.Notice) error {
	c.metrics.IncCartMutation(string(op), outcome)
	c.log.Event(ctx, zerolog.InfoLevel).Err(err).Str("outcome", outcome).Msg("cart mutation rejected")
	c.notifier.Notify(ctx, notice)
	return err
}

// keyedLock hands out one context-aware mutex per key and forgets keys nobody holds.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*keyEntry)}
}

func (k *keyedLock) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			k.release(key, e)
		}, nil
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}
}

func (k *keyedLock) release(key string, e *keyEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}
