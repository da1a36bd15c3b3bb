// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/in/http/handlers"
	"anusswar/internal/adapters/in/http/middleware"
	"anusswar/internal/application/cartsync"
	usecase "anusswar/internal/application/usecase"
)

// RouterDeps collects what main injects. Nil usecases leave their routes unmounted.
type RouterDeps struct {
	CatalogUC   *usecase.CatalogUsecase
	CheckoutUC  *usecase.CheckoutUsecase
	RequestUC   *usecase.RequestUsecase
	DashboardUC *usecase.DashboardUsecase

	// CartStore is read by checkout; the HTTP API has no device cart.
	CartStore cartsync.RemoteStore
	Verifier  middleware.TokenVerifier
	Limiter   *middleware.Limiter

	AllowedOrigin string
	Log           *logrus.Logger
}

// NewRouter wires routes and the middleware chain:
// CORS > Recover > RequestLog > RateLimit > mux.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	auth := &middleware.Auth{Verifier: deps.Verifier, Log: log}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.CatalogUC != nil {
		h := handlers.NewProductHandler(deps.CatalogUC, log)
		mux.HandleFunc("GET /products", h.List)
		mux.HandleFunc("GET /products/{id}", h.Get)
	}

	if deps.CheckoutUC != nil && deps.CartStore != nil {
		h := handlers.NewOrderHandler(deps.CheckoutUC, deps.CartStore, log)
		mux.Handle("POST /orders", auth.Require(http.HandlerFunc(h.Place)))
		mux.Handle("GET /orders/quote", auth.Require(http.HandlerFunc(h.Quote)))
	}

	if deps.RequestUC != nil {
		h := handlers.NewRequestHandler(deps.RequestUC, log)
		mux.Handle("POST /lesson-requests", auth.Optional(http.HandlerFunc(h.Lesson)))
		mux.Handle("POST /workshop-requests", auth.Require(http.HandlerFunc(h.Workshop)))
	}

	if deps.DashboardUC != nil {
		h := handlers.NewDashboardHandler(deps.DashboardUC, log)
		mux.Handle("GET /dashboard", auth.Admin(http.HandlerFunc(h.Get)))
	}

	var handler http.Handler = mux
	handler = deps.Limiter.Handler(handler)
	handler = middleware.RequestLog(log)(handler)
	handler = middleware.Recover(log)(handler)
	handler = middleware.CORS(deps.AllowedOrigin)(handler)
	return handler
}
