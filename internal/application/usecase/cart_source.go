// internal/application/usecase/cart_source.go
package usecase

import (
	"context"

	"github.com/pkg/errors"

	"anusswar/internal/application/cartsync"
	"anusswar/internal/domain/cart"
)

// CartSource is the cart a checkout reads and clears.
type CartSource interface {
	Load(ctx context.Context) (cart.Cart, error)
	Clear(ctx context.Context) error
}

// SyncedCart is the device cart held by a Synchronizer.
type SyncedCart struct {
	Sync *cartsync.Synchronizer
}

func (c SyncedCart) Load(context.Context) (cart.Cart, error) { return c.Sync.Cart(), nil }

func (c SyncedCart) Clear(ctx context.Context) error { return c.Sync.Clear(ctx) }

// RemoteCart reads a user's cart straight from the remote store. Used by the
// HTTP API, which has no device state.
type RemoteCart struct {
	Store cartsync.RemoteStore
	UID   string

	loaded cart.Cart
}

func (c *RemoteCart) Load(ctx context.Context) (cart.Cart, error) {
	lines, err := c.Store.FetchLines(ctx, c.UID)
	if err != nil {
		return cart.Cart{}, errors.Wrap(err, "remote cart: load")
	}
	c.loaded = cart.New(lines)
	return c.loaded.Clone(), nil
}

// Clear deletes the lines seen by Load.
func (c *RemoteCart) Clear(ctx context.Context) error {
	ids := c.loaded.IDs()
	if len(ids) == 0 {
		return nil
	}
	return c.Store.WriteLines(ctx, c.UID, nil, ids)
}
