package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/domain"
	"pharmacy/metrics"
	"pharmacy/stock"
	"pharmacy/store"
)

func seed(t *testing.T) *store.MemorySource {
	t.Helper()
	discount := decimal.NewFromInt(20)
	src, err := store.NewMemorySource(
		domain.Product{ID: "1", Name: "Panadol", Category: "cold", Price: decimal.NewFromInt(40), Discount: &discount, StockQuantity: 3},
		domain.Product{ID: "2", Name: "Brufen", Price: decimal.NewFromInt(25), StockQuantity: 0},
	)
	require.NoError(t, err)
	return src
}

func newServer(t *testing.T, src domain.ProductSource, reg *prometheus.Registry) *httptest.Server {
	t.Helper()
	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	ts := httptest.NewServer(NewRouter(src, nil, gatherer))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestRoundTripThroughHTTPSource(t *testing.T) {
	ts := newServer(t, seed(t), nil)
	client, err := store.NewHTTPSource(ts.URL, store.WithTimeout(2*time.Second))
	require.NoError(t, err)
	ctx := context.Background()

	products, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ID)
	assert.Equal(t, "cold", products[0].Category)
	assert.True(t, products[0].EffectivePrice().Equal(decimal.NewFromInt(32)))
	assert.False(t, products[1].HasCategory())

	p, err := client.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Brufen", p.Name)

	_, err = client.Get(ctx, "404")
	assert.True(t, domain.IsProductNotFoundError(err))
}

func TestStockEndpoint(t *testing.T) {
	src := seed(t)
	ts := newServer(t, src, nil)
	ctx := context.Background()

	resp, body := do(t, http.MethodPatch, ts.URL+"/api/Products/1/stock", `{"stockQuantity": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"stockQuantity":0`)

	p, err := src.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"negative", "/api/Products/1/stock", `{"stockQuantity": -1}`, http.StatusBadRequest},
		{"missing field", "/api/Products/1/stock", `{}`, http.StatusBadRequest},
		{"unknown field", "/api/Products/1/stock", `{"qty": 1}`, http.StatusBadRequest},
		{"malformed", "/api/Products/1/stock", `{`, http.StatusBadRequest},
		{"unknown product", "/api/Products/9/stock", `{"stockQuantity": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPatch, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Contains(t, body, `"error"`)
		})
	}
}

type readOnlySource struct{ domain.ProductSource }

func TestStockEndpointRequiresSetter(t *testing.T) {
	ts := newServer(t, readOnlySource{seed(t)}, nil)
	resp, _ := do(t, http.MethodPatch, ts.URL+"/api/Products/1/stock", `{"stockQuantity": 1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// The oracle sees stock changes made after the catalog was fetched.
func TestOracleAgainstServer(t *testing.T) {
	ts := newServer(t, seed(t), nil)
	client, err := store.NewHTTPSource(ts.URL)
	require.NoError(t, err)
	oracle, err := stock.NewOracle(client)
	require.NoError(t, err)
	ctx := context.Background()

	n, err := oracle.CurrentStock(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	resp, _ := do(t, http.MethodPatch, ts.URL+"/api/Products/1/stock", `{"stockQuantity": 1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	n, err = oracle.CurrentStock(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = oracle.CurrentStock(ctx, "missing")
	assert.True(t, domain.IsStockCheckError(err))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncCatalogLoad("ok")

	ts := newServer(t, seed(t), reg)
	resp, body := do(t, http.MethodGet, ts.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `pharmacy_catalog_loads_total{result="ok"} 1`)

	resp, body = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ok")
}

func TestRunShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	router := NewRouter(seed(t), nil, nil)
	go func() { done <- Run(ctx, "127.0.0.1:0", router, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
