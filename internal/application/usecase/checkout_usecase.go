// internal/application/usecase/checkout_usecase.go
package usecase

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
	orderdom "anusswar/internal/domain/order"
	productdom "anusswar/internal/domain/product"
	"anusswar/internal/pkg/clock"
)

// availabilityConcurrency bounds parallel product reads during the stock pre-check.
const availabilityConcurrency = 8

// CheckoutUsecase turns a cart into an order.
type CheckoutUsecase struct {
	products productdom.Repository
	orders   orderdom.Repository
	notifier Notifier
	clock    clock.Clock
	log      *logrus.Logger
}

func NewCheckoutUsecase(products productdom.Repository, orders orderdom.Repository, notifier Notifier, clk clock.Clock, logger *logrus.Logger) *CheckoutUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CheckoutUsecase{products: products, orders: orders, notifier: notifier, clock: clk, log: logger}
}

// Quote is a cart priced for a delivery method.
type Quote struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// Quote prices the cart without placing anything.
func (uc *CheckoutUsecase) Quote(ctx context.Context, src CartSource, method orderdom.DeliveryMethod) (Quote, error) {
	c, err := src.Load(ctx)
	if err != nil {
		return Quote{}, err
	}
	sub := c.Subtotal()
	fee := orderdom.Fee(method, sub)
	return Quote{Subtotal: sub, DeliveryFee: fee, Total: sub.Add(fee)}, nil
}

// PlaceOrder checks availability, places the order in one transaction, then
// clears the cart and notifies. Clearing and notifying are best effort.
func (uc *CheckoutUsecase) PlaceOrder(ctx context.Context, who *identity.Identity, src CartSource, d orderdom.Draft) (*orderdom.Order, error) {
	if who == nil {
		return nil, orderdom.ErrNotSignedIn
	}

	c, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	o, err := orderdom.New(who, c, d, orderdom.NewNumber(now), now)
	if err != nil {
		return nil, err
	}

	if err := uc.checkAvailability(ctx, c); err != nil {
		return nil, err
	}

	id, err := uc.orders.Place(ctx, o)
	if err != nil {
		return nil, err
	}
	o.ID = id

	entry := uc.log.WithFields(logrus.Fields{"uid": who.UID, "order": o.OrderNumber})
	if err := src.Clear(ctx); err != nil {
		entry.WithError(err).Warn("[checkout] cart clear failed")
	}
	if err := uc.notifier.OrderPlaced(ctx, o); err != nil {
		entry.WithError(err).Warn("[checkout] confirmation email failed")
	}
	entry.WithField("total", o.Total.StringFixed(2)).Info("[checkout] order placed")
	return o, nil
}

// checkAvailability reads every product in parallel. The transaction in Place
// re-checks; this only fails fast with a readable message.
func (uc *CheckoutUsecase) checkAvailability(ctx context.Context, c cart.Cart) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(availabilityConcurrency)

	for _, l := range c.Lines {
		g.Go(func() error {
			p, err := uc.products.Get(gctx, l.ItemID)
			if errors.Is(err, productdom.ErrNotFound) {
				return errors.Wrapf(orderdom.ErrProductUnavailable, "%q", l.Name)
			}
			if err != nil {
				return err
			}
			if !p.Available(l.Quantity) {
				return errors.Wrapf(orderdom.ErrInsufficientStock, "only %d of %q available", p.Stock, l.Name)
			}
			return nil
		})
	}
	return g.Wait()
}
