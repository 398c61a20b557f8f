package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pharmacy/domain"
	"pharmacy/logger"
)

const (
	listProductsPath = "/api/Products/GetAllProducts"
	productPath      = "/api/Products/"

	maxResponseBytes = 10 << 20
	defaultTimeout   = 3 * time.Second
)

// HTTPSource talks to the remote product service.
type HTTPSource struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	insecure bool
	log      *logger.Logger
}

// HTTPOption customizes an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithTimeout bounds every request made by the source.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) { s.timeout = d }
}

// WithInsecureTLS skips certificate verification, for local services with self-signed certs.
func WithInsecureTLS(insecure bool) HTTPOption {
	return func(s *HTTPSource) { s.insecure = insecure }
}

func WithLogger(l *logger.Logger) HTTPOption {
	return func(s *HTTPSource) { s.log = l }
}

var _ domain.ProductSource = (*HTTPSource)(nil)

// NewHTTPSource creates a product service client rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid product service url %q", baseURL)
	}

	s := &HTTPSource{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if s.insecure {
			base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local dev certificates
		}
		s.client = &http.Client{Transport: otelhttp.NewTransport(base)}
	}
	return s, nil
}

// List fetches every product. Records failing boundary validation are dropped and logged.
func (s *HTTPSource) List(ctx context.Context) ([]domain.Product, error) {
	body, err := s.fetch(ctx, "fetch products", s.baseURL+listProductsPath)
	if err != nil {
		return nil, err
	}

	products, rejected, err := DecodeProducts(body)
	if err != nil {
		return nil, &domain.FetchError{Op: "fetch products", Err: err}
	}
	for _, r := range rejected {
		s.log.Warn(ctx, "product record rejected", r)
	}

	s.log.Event(ctx, zerolog.InfoLevel).
		Int("count", len(products)).
		Int("rejected", len(rejected)).
		Msg("products fetched")
	return products, nil
}

// Get fetches the current record of a single product.
func (s *HTTPSource) Get(ctx context.Context, id string) (domain.Product, error) {
	body, err := s.fetch(ctx, "fetch product", s.baseURL+productPath+url.PathEscape(id))
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) && fe.Status == http.StatusNotFound {
			return domain.Product{}, domain.NewProductNotFoundError(id)
		}
		return domain.Product{}, err
	}

	p, err := DecodeProduct(body)
	if err != nil {
		return domain.Product{}, &domain.FetchError{Op: "fetch product", Err: err}
	}
	return p, nil
}

func (s *HTTPSource) fetch(ctx context.Context, op, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &domain.FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &domain.FetchError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.FetchError{Op: op, Err: err}
	}
	return body, nil
}
