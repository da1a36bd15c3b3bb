// internal/platform/di/storefront/container.go
package storefront

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anusswar/internal/adapters/out/firebaseauth"
	"anusswar/internal/adapters/out/localstore"
	"anusswar/internal/application/auth"
	"anusswar/internal/application/cartsync"
	"anusswar/internal/domain/identity"
	appcfg "anusswar/internal/infra/config"
	"anusswar/internal/pkg/clock"
	"anusswar/internal/platform/di/shared"
)

// ErrOffline is returned by operations that need the backend when it could not be reached.
var ErrOffline = errors.New("storefront: backend unavailable")

// Container is one device: its local store, its session and its cart.
// Without a backend the cart still works locally and the session stays signed out.
type Container struct {
	Config *appcfg.Config
	Log    *logrus.Logger

	Local    *localstore.Store
	Auth     *auth.Service
	Cart     *cartsync.Synchronizer
	Infra    *shared.Infra    // nil when offline
	Usecases *shared.Usecases // nil when offline
}

// NewContainer opens the device store, restores the session and starts the
// cart synchronizer. opts are passed to the synchronizer.
func NewContainer(ctx context.Context, cfg *appcfg.Config, log *logrus.Logger, opts ...cartsync.Option) (*Container, error) {
	clk := clock.Real()

	local, err := localstore.Open(cfg.LocalStorePath, clk)
	if err != nil {
		return nil, errors.Wrap(err, "storefront.di: open local store")
	}
	c := &Container{Config: cfg, Log: log, Local: local}

	inf, err := shared.NewInfra(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Warn("[storefront.di] backend unavailable; cart is local only")
	} else {
		c.Infra = inf
		c.Usecases = shared.NewUsecases(ctx, inf)
	}

	var provider auth.Provider = offlineProvider{}
	var profiles auth.ProfileRepository
	if c.Infra != nil {
		profiles = c.Usecases.Profiles
		if p, err := newProvider(ctx, c.Infra, clk); err != nil {
			log.WithError(err).Warn("[storefront.di] sign-in unavailable")
		} else {
			provider = p
		}
	}

	c.Auth = auth.NewService(provider, profiles, local, clk, log)
	if err := c.Auth.Restore(); err != nil {
		log.WithError(err).Warn("[storefront.di] session restore failed; signed out")
	}

	opts = append([]cartsync.Option{cartsync.WithStorageKey(cfg.CartStorageKey)}, opts...)
	if c.Infra != nil {
		c.Cart = cartsync.New(local, c.Usecases.Carts, c.Auth, log, opts...)
	} else {
		c.Cart = cartsync.New(local, nil, nil, log, opts...)
	}
	if err := c.Cart.Initialize(ctx); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "storefront.di: start cart")
	}
	return c, nil
}

// Online reports whether the backend was reached.
func (c *Container) Online() bool { return c.Usecases != nil }

func (c *Container) Close() error {
	if c.Cart != nil {
		c.Cart.Close()
	}
	if c.Infra != nil {
		_ = c.Infra.Close()
	}
	return c.Local.Close()
}

// ----------------------------
// Helpers
// ----------------------------

func newProvider(ctx context.Context, inf *shared.Infra, clk clock.Clock) (*firebaseauth.Provider, error) {
	if inf.FirebaseAuth == nil {
		return nil, errors.New("firebase auth not initialized")
	}
	key, err := inf.Resolve(ctx, inf.Config.FirebaseAPIKey, inf.Config.FirebaseAPIKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "firebase web api key")
	}
	toolkit, err := firebaseauth.NewToolkit(ctx, key)
	if err != nil {
		return nil, err
	}
	return firebaseauth.NewProvider(inf.FirebaseAuth, toolkit, clk, inf.Log), nil
}

type offlineProvider struct{}

func (offlineProvider) SignUp(context.Context, string, string, string) (*identity.Identity, error) {
	return nil, ErrOffline
}

func (offlineProvider) SignIn(context.Context, string, string) (*identity.Identity, error) {
	return nil, ErrOffline
}
