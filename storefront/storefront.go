package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pharmacy/cart"
	"pharmacy/catalog"
	"pharmacy/domain"
	"pharmacy/logger"
	"pharmacy/metrics"
	"pharmacy/stock"
)

// Deps are the collaborators a storefront is mounted with.
type Deps struct {
	Source   domain.ProductSource
	Oracle   stock.Checker
	Notifier domain.Notifier
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Storefront is the pharmacy view of one session: the catalog fetched on mount,
// the shopper's filter, per-product card state and the cart.
type Storefront struct {
	session Session
	source  domain.ProductSource
	notify  domain.Notifier
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time

	loadOnce sync.Once

	mu      sync.Mutex
	loading bool
	loadErr error
	catalog *catalog.Catalog
	cards   map[string]*cardState

	view *catalog.View
	cart *cart.Cart
}

type cardState struct {
	quantity   int
	outOfStock bool
	addedUntil time.Time
}

// New builds an unloaded storefront. Call Load, or use Mount.
func New(session Session, deps Deps) (*Storefront, error) {
	if deps.Source == nil {
		return nil, errors.New("product source required")
	}
	if deps.Oracle == nil {
		return nil, errors.New("stock checker required")
	}
	if deps.Notifier == nil {
		deps.Notifier = domain.NotifierFunc(func(context.Context, domain.Notice) {})
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if session.AddedIndicator <= 0 {
		session.AddedIndicator = 2 * time.Second
	}

	return &Storefront{
		session: session,
		source:  deps.Source,
		notify:  deps.Notifier,
		metrics: deps.Metrics,
		log:     deps.Logger,
		now:     deps.Now,
		loading: true,
		catalog: catalog.Empty(),
		cards:   make(map[string]*cardState),
		view:    catalog.NewView(nil),
		cart: cart.New(deps.Oracle,
			cart.WithNotifier(deps.Notifier),
			cart.WithMetrics(deps.Metrics),
			cart.WithLogger(deps.Logger)),
	}, nil
}

// Mount creates the storefront and fetches the catalog once. A listing failure is
// not returned: it is kept as the storefront's error state with an empty catalog.
func Mount(ctx context.Context, session Session, deps Deps) (*Storefront, error) {
	s, err := New(session, deps)
	if err != nil {
		return nil, err
	}
	s.Load(ctx)
	return s, nil
}

// Load performs the single listing fetch. Later calls do nothing.
func (s *Storefront) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		ctx = s.log.WithSessionID(ctx, s.session.ID.String())
		c, err := catalog.Load(ctx, s.source)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		if err != nil {
			s.loadErr = err
			s.metrics.IncCatalogLoad("error")
			s.log.Error(ctx, "failed to fetch products", err)
			return
		}
		s.catalog = c
		for _, p := range c.Products() {
			s.cards[p.ID] = &cardState{quantity: 1, outOfStock: p.StockQuantity == 0}
		}
		s.view.SetCatalog(c)
		s.metrics.IncCatalogLoad("ok")
		s.log.Event(ctx, zerolog.InfoLevel).Int("products", c.Len()).Msg("catalog loaded")
	})
}

// Unmount discards the cart. In-flight adds finish without mutating anything.
func (s *Storefront) Unmount() {
	s.cart.Close()
}

func (s *Storefront) Session() Session { return s.session }

func (s *Storefront) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadError is the listing failure, if any and not dismissed.
func (s *Storefront) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Storefront) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = nil
}

func (s *Storefront) Catalog() *catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

func (s *Storefront) SetSearch(term string)       { s.view.SetSearch(term) }
func (s *Storefront) SetCategory(category string) { s.view.SetCategory(category) }
func (s *Storefront) Search() string              { return s.view.Search() }
func (s *Storefront) Category() string            { return s.view.Category() }
func (s *Storefront) Visible() []domain.Product   { return s.view.Visible() }
func (s *Storefront) Categories() []string        { return s.view.Categories() }
func (s *Storefront) EmptyMessage() string        { return s.view.EmptyMessage() }

// CategoryOption is one entry of the category selector.
type CategoryOption struct {
	Value string
	Label string
}

func (s *Storefront) CategoryOptions() []CategoryOption {
	cats := s.view.Categories()
	out := make([]CategoryOption, len(cats))
	for i, c := range cats {
		out[i] = CategoryOption{Value: c, Label: catalog.CategoryLabel(c)}
	}
	return out
}

// Cart exposes the underlying cart store.
func (s *Storefront) Cart() *cart.Cart { return s.cart }

// CartView is the presentation model of the cart.
func (s *Storefront) CartView() cart.View {
	return cart.Present(s.cart.State())
}

// CartCount is the badge shown next to the cart button.
func (s *Storefront) CartCount() int {
	return cart.ItemCount(s.cart.Lines())
}

// FormatMoney renders an amount in the session currency.
func (s *Storefront) FormatMoney(amount decimal.Decimal) string {
	return cart.FormatMoney(s.session.Currency, amount)
}
