// internal/platform/di/api/container.go
package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	httpin "anusswar/internal/adapters/in/http"
	"anusswar/internal/adapters/in/http/middleware"
	"anusswar/internal/adapters/out/firebaseauth"
	"anusswar/internal/platform/di/shared"
)

// Rate limit per client IP.
const (
	rateBurst = 40
	rateRPS   = 10
)

// Container holds the HTTP API's wiring. Infra is owned by main.
type Container struct {
	Infra    *shared.Infra
	Usecases *shared.Usecases
	Verifier *firebaseauth.TokenVerifier
	Limiter  *middleware.Limiter
}

func NewContainer(ctx context.Context, inf *shared.Infra) (*Container, error) {
	if inf == nil {
		return nil, errors.New("api.di: infra is nil")
	}
	if inf.FirebaseAuth == nil {
		return nil, errors.New("api.di: firebase auth is required to verify id tokens")
	}

	c := &Container{
		Infra:    inf,
		Usecases: shared.NewUsecases(ctx, inf),
		Verifier: firebaseauth.NewTokenVerifier(inf.FirebaseAuth),
	}
	if inf.Redis != nil {
		c.Limiter = &middleware.Limiter{Client: inf.Redis, Burst: rateBurst, RPS: rateRPS, Log: inf.Log}
	}
	return c, nil
}

// Handler builds the full router.
func (c *Container) Handler() http.Handler {
	return httpin.NewRouter(httpin.RouterDeps{
		CatalogUC:     c.Usecases.Catalog,
		CheckoutUC:    c.Usecases.Checkout,
		RequestUC:     c.Usecases.Requests,
		DashboardUC:   c.Usecases.Dashboard,
		CartStore:     c.Usecases.Carts,
		Verifier:      c.Verifier,
		Limiter:       c.Limiter,
		AllowedOrigin: c.Infra.Config.AllowedOrigin,
		Log:           c.Infra.Log,
	})
}
