package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/config"
	"pharmacy/domain"
	"pharmacy/notify"
	"pharmacy/stock"
	"pharmacy/store"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingSource struct{}

func (failingSource) List(context.Context) ([]domain.Product, error) {
	return nil, &domain.FetchError{Op: "fetch products", Status: 503}
}

func (failingSource) Get(context.Context, string) (domain.Product, error) {
	return domain.Product{}, errors.New("unavailable")
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func fixture() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Panadol Cold & Flu", Description: "Cold relief", Category: "cold", Price: decimal.NewFromInt(40), Discount: dec("15"), StockQuantity: 3, ImageURL: "/img/panadol.jpg"},
		{ID: "2", Name: "Brufen", Description: "Ibuprofen", Category: "pain relief", Price: decimal.NewFromInt(25), StockQuantity: 10},
		{ID: "3", Name: "Vitamin C", Description: "Immune support", Category: "vitamins", Price: decimal.NewFromInt(60), StockQuantity: 0},
	}
}

type harness struct {
	front  *Storefront
	source *store.MemorySource
	rec    *notify.Recorder
	clock  *clock
}

func mount(t *testing.T) harness {
	t.Helper()
	src, err := store.NewMemorySource(fixture()...)
	require.NoError(t, err)
	oracle, err := stock.NewOracle(src)
	require.NoError(t, err)

	rec := &notify.Recorder{}
	clk := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	session := NewSession(config.StorefrontConfig{Currency: "E£", DefaultImageURL: "/default.jpg", AddedIndicator: 2 * time.Second})

	front, err := Mount(context.Background(), session, Deps{Source: src, Oracle: oracle, Notifier: rec, Now: clk.Now})
	require.NoError(t, err)
	t.Cleanup(front.Unmount)
	return harness{front: front, source: src, rec: rec, clock: clk}
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Session{}, Deps{})
	require.Error(t, err)

	src, _ := store.NewMemorySource()
	_, err = New(Session{}, Deps{Source: src})
	require.Error(t, err)
}

func TestMountLoadsCatalog(t *testing.T) {
	h := mount(t)

	assert.False(t, h.front.Loading())
	assert.NoError(t, h.front.LoadError())
	assert.Len(t, h.front.Visible(), 3)
	assert.Equal(t, []string{"all", "cold", "pain relief", "vitamins"}, h.front.Categories())

	opts := h.front.CategoryOptions()
	assert.Equal(t, CategoryOption{Value: "pain relief", Label: "Pain relief"}, opts[2])
	assert.NotEqual(t, "", h.front.Session().ID.String())
}

func TestMountKeepsListingFailure(t *testing.T) {
	session := NewSession(config.StorefrontConfig{Currency: "E£"})
	oracle, err := stock.NewOracle(failingSource{})
	require.NoError(t, err)
	front, err := New(session, Deps{Source: failingSource{}, Oracle: oracle})
	require.NoError(t, err)
	assert.True(t, front.Loading())

	front.Load(context.Background())
	assert.False(t, front.Loading())
	require.Error(t, front.LoadError())
	assert.True(t, domain.IsFetchError(front.LoadError()))
	assert.Empty(t, front.Visible())
	assert.Equal(t, "No products available", front.EmptyMessage())

	front.DismissError()
	assert.NoError(t, front.LoadError())
}

func TestFilterThroughStorefront(t *testing.T) {
	h := mount(t)

	h.front.SetSearch("xyz")
	assert.Empty(t, h.front.Cards())
	assert.Equal(t, `No products found matching "xyz"`, h.front.EmptyMessage())

	h.front.SetSearch("")
	h.front.SetCategory("PAIN RELIEF")
	cards := h.front.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, "2", cards[0].Product.ID)
}

func TestCardDisplay(t *testing.T) {
	h := mount(t)

	c, err := h.front.Card("1")
	require.NoError(t, err)
	assert.Equal(t, "E£34.00", c.Price)
	assert.Equal(t, "E£40.00", c.OriginalPrice)
	assert.Equal(t, "15% OFF", c.DiscountBadge)
	assert.Equal(t, "3 items in stock", c.StockLabel)
	assert.Equal(t, "/img/panadol.jpg", c.ImageURL)
	assert.Equal(t, 1, c.Quantity)
	assert.False(t, c.OutOfStock)

	c, _ = h.front.Card("2")
	assert.Equal(t, "", c.OriginalPrice)
	assert.Equal(t, "", c.DiscountBadge)
	assert.Equal(t, "/default.jpg", c.ImageURL)

	c, _ = h.front.Card("3")
	assert.Equal(t, "Out of stock", c.StockLabel)
	assert.True(t, c.OutOfStock)

	_, err = h.front.Card("404")
	assert.True(t, domain.IsProductNotFoundError(err))
}

func TestSetQuantity(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	require.NoError(t, h.front.SetQuantity(ctx, "1", 2))
	c, _ := h.front.Card("1")
	assert.Equal(t, 2, c.Quantity)

	require.NoError(t, h.front.SetQuantity(ctx, "1", 0))
	c, _ = h.front.Card("1")
	assert.Equal(t, 2, c.Quantity)

	err := h.front.SetQuantity(ctx, "1", 4)
	assert.True(t, domain.IsMaxQuantityError(err))
	n, _ := h.rec.Last()
	assert.Equal(t, "Maximum available: 3", n.Message)
	c, _ = h.front.Card("1")
	assert.Equal(t, 2, c.Quantity)
}

func TestAddToCartFlow(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	require.NoError(t, h.front.SetQuantity(ctx, "2", 3))
	line, err := h.front.AddToCart(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	c, _ := h.front.Card("2")
	assert.Equal(t, 1, c.Quantity, "selector resets after add")
	assert.True(t, c.Added)

	h.clock.Advance(2 * time.Second)
	c, _ = h.front.Card("2")
	assert.False(t, c.Added)

	assert.Equal(t, 3, h.front.CartCount())
	view := h.front.CartView()
	assert.Equal(t, "E£75.00", h.front.FormatMoney(view.Subtotal))
}

func TestAddToCartExhaustsStock(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	require.NoError(t, h.front.SetQuantity(ctx, "1", 3))
	_, err := h.front.AddToCart(ctx, "1")
	require.NoError(t, err)

	c, _ := h.front.Card("1")
	assert.True(t, c.OutOfStock)
	assert.Equal(t, "Out of stock", c.StockLabel)

	_, err = h.front.AddToCart(ctx, "1")
	assert.True(t, domain.IsOutOfStockError(err))
}

func TestAddToCartSeesFreshStock(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	// stock sold elsewhere after the catalog was fetched
	require.NoError(t, h.source.SetStock(ctx, "2", 0))

	_, err := h.front.AddToCart(ctx, "2")
	assert.True(t, domain.IsOutOfStockError(err))
	n, _ := h.rec.Last()
	assert.Equal(t, "This product is now out of stock", n.Message)
	assert.Equal(t, 0, h.front.CartCount())

	c, _ := h.front.Card("2")
	assert.True(t, c.OutOfStock)
	assert.Equal(t, "Out of stock", c.StockLabel)
}

func TestAddToCartInsufficientFreshStock(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	require.NoError(t, h.source.SetStock(ctx, "2", 2))
	require.NoError(t, h.front.SetQuantity(ctx, "2", 5))

	_, err := h.front.AddToCart(ctx, "2")
	assert.True(t, domain.IsInsufficientStockError(err))
	n, _ := h.rec.Last()
	assert.Equal(t, "Only 2 items available", n.Message)

	c, _ := h.front.Card("2")
	assert.Equal(t, 5, c.Quantity, "selector kept after a rejected add")
	assert.False(t, c.OutOfStock)
}

func TestCartUpdateAndRemove(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	_, err := h.front.AddToCart(ctx, "2")
	require.NoError(t, err)

	require.NoError(t, h.front.UpdateCart(ctx, "2", 4))
	assert.Equal(t, 4, h.front.CartCount())

	err = h.front.UpdateCart(ctx, "2", 11)
	assert.True(t, domain.IsMaxQuantityError(err))

	require.NoError(t, h.front.RemoveFromCart(ctx, "2"))
	view := h.front.CartView()
	assert.True(t, view.Empty())
	assert.Equal(t, "Your cart is empty", view.EmptyMessage)
}

func TestUnmountDiscardsCart(t *testing.T) {
	h := mount(t)
	ctx := context.Background()

	_, err := h.front.AddToCart(ctx, "2")
	require.NoError(t, err)
	h.front.Unmount()

	assert.Equal(t, 0, h.front.CartCount())
	_, err = h.front.AddToCart(ctx, "2")
	assert.True(t, domain.IsCartClosedError(err))
}
