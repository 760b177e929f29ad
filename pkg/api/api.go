// Package api exposes the storefront over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"storefront/pkg/logger"
	"storefront/pkg/order"
	"storefront/pkg/product"
	"storefront/pkg/session"
	"storefront/pkg/user"
)

// Prices and totals go out as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Config carries the dependencies of the HTTP layer.
type Config struct {
	Log           *logger.Logger
	Tracer        trace.Tracer
	Orders        *order.Manager
	Catalog       *product.Catalog
	Users         *user.Service
	Sessions      session.Store
	SessionTTL    time.Duration
	SecureCookies bool
}

type handlers struct {
	Config
}

// NewRouter builds the route table.
func NewRouter(cfg Config) http.Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	h := &handlers{Config: cfg}

	r := mux.NewRouter()
	r.Use(h.traceMiddleware, h.logMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.login).Methods(http.MethodPost)
	auth.Handle("/logout", h.authMiddleware(http.HandlerFunc(h.logout))).Methods(http.MethodPost)
	auth.Handle("/me", h.authMiddleware(http.HandlerFunc(h.me))).Methods(http.MethodGet)

	products := r.PathPrefix("/products").Subrouter()
	products.HandleFunc("", h.listProducts).Methods(http.MethodGet)
	products.HandleFunc("/{id}", h.getProduct).Methods(http.MethodGet)
	products.Handle("", h.admin(h.createProduct)).Methods(http.MethodPost)
	products.Handle("/{id}", h.admin(h.updateProduct)).Methods(http.MethodPut)
	products.Handle("/{id}", h.admin(h.deleteProduct)).Methods(http.MethodDelete)

	orders := r.PathPrefix("/orders").Subrouter()
	orders.Use(h.authMiddleware)
	orders.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	orders.HandleFunc("", h.createOrder).Methods(http.MethodPost)
	orders.HandleFunc("/{id}", h.getOrder).Methods(http.MethodGet)
	orders.Handle("/{id}", requireAdmin(http.HandlerFunc(h.updateOrder))).Methods(http.MethodPut)
	orders.Handle("/{id}", requireAdmin(http.HandlerFunc(h.transitionOrder))).Methods(http.MethodPatch)
	orders.Handle("/{id}", requireAdmin(http.HandlerFunc(h.deleteOrder))).Methods(http.MethodDelete)

	r.Handle("/admin/summary", h.admin(h.summary)).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	return r
}

// admin wraps fn so it runs only for admin sessions.
func (h *handlers) admin(fn http.HandlerFunc) http.Handler {
	return h.authMiddleware(requireAdmin(fn))
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
