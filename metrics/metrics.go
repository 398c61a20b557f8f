package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records storefront activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	catalogLoads  *prometheus.CounterVec
	stockChecks   *prometheus.HistogramVec
	cartMutations *prometheus.CounterVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	catalogLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacy",
		Name:      "catalog_loads_total",
		Help:      "Catalog listing fetches by result.",
	}, []string{"result"})
	stockChecks := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pharmacy",
		Name:      "stock_check_duration_seconds",
		Help:      "Duration of add-time stock checks in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmacy",
		Name:      "cart_mutations_total",
		Help:      "Cart operations by kind and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(catalogLoads, stockChecks, cartMutations)
	return &Metrics{
		catalogLoads:  catalogLoads,
		stockChecks:   stockChecks,
		cartMutations: cartMutations,
	}
}

func (m *Metrics) IncCatalogLoad(result string) {
	if m == nil || m.catalogLoads == nil {
		return
	}
	m.catalogLoads.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) ObserveStockCheck(result string, d time.Duration) {
	if m == nil || m.stockChecks == nil {
		return
	}
	m.stockChecks.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

func (m *Metrics) IncCartMutation(op, outcome string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "unknown"
	}
	return v
}
