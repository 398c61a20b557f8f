// Package server exposes a product source over the product service's HTTP contract.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pharmacy/domain"
	"pharmacy/logger"
)

// Paths of the product service contract.
const (
	ListPath   = "/api/Products/GetAllProducts"
	DetailPath = "/api/Products/{id}"
	StockPath  = "/api/Products/{id}/stock"
)

type handler struct {
	source   domain.ProductSource
	log      *logger.Logger
	validate *validator.Validate
}

type stockRequest struct {
	StockQuantity *int `json:"stockQuantity" validate:"required,gte=0"`
}

type errorBody struct {
	Error string `json:"error"`
}

// NewRouter serves source. The stock endpoint is mounted only when source can
// adjust stock; /metrics only when a gatherer is given.
func NewRouter(source domain.ProductSource, log *logger.Logger, gatherer prometheus.Gatherer) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{source: source, log: log, validate: validator.New()}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, requestLogging(log), chimw.Recoverer)

	r.Get(ListPath, h.list)
	r.Get(DetailPath, h.get)
	if _, ok := source.(domain.StockSetter); ok {
		r.Patch(StockPath, h.setStock)
	}
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return otelhttp.NewHandler(r, "pharmacy.product-service")
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.source.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.source.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) setStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := h.log.WithProductID(r.Context(), id)

	var req stockRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(ctx, w, domain.NewInvalidProductError("body", err.Error(), nil))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(ctx, w, domain.NewInvalidProductError("stockQuantity", "must be a number >= 0", req.StockQuantity))
		return
	}

	setter := h.source.(domain.StockSetter)
	if err := setter.SetStock(ctx, id, *req.StockQuantity); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	p, err := h.source.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.log.Info(h.log.WithField(ctx, "stock", p.StockQuantity), "stock adjusted")
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsProductNotFoundError(err):
		status = http.StatusNotFound
	case domain.IsInvalidProductError(err):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.log.Error(ctx, "request failed", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func requestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := log.WithFields(r.Context(), map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": chimw.GetReqID(r.Context()),
			})
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Debug(log.WithFields(ctx, map[string]any{
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
			}), "request complete")
		})
	}
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.WithField(ctx, "addr", addr), "product service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
